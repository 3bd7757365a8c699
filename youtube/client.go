// Package youtube reads caption tracks of YouTube videos.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nijaru/transcript-server/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	innertubeClientName    = "ANDROID"
	innertubeClientVersion = "20.10.38"
	maxBodySize            = 10 << 20
)

var (
	apiKeyPattern       = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)
	consentValuePattern = regexp.MustCompile(`name="v" value="(.*?)"`)
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	Proxy   ProxyConfig
}

type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     logrus.FieldLogger
}

func NewClient(cfg Config, logger logrus.FieldLogger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base URL %q", cfg.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	proxy, err := cfg.Proxy.proxyFunc()
	if err != nil {
		return nil, err
	}
	if proxy != nil {
		transport.Proxy = proxy
		// rotating proxies hand out a new exit IP per connection
		transport.DisableKeepAlives = cfg.Proxy.rotating()
	}

	return &Client{
		httpClient: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

// Fetch returns the transcript of the first track matching languages.
func (c *Client) Fetch(ctx context.Context, videoID string, languages []string) ([]models.Snippet, error) {
	list, err := c.List(ctx, videoID)
	if err != nil {
		return nil, err
	}
	track, err := list.FindTranscript(languages)
	if err != nil {
		return nil, err
	}
	return c.FetchTrack(ctx, track, "")
}

// List returns all caption tracks YouTube exposes for videoID.
func (c *Client) List(ctx context.Context, videoID string) (*TranscriptList, error) {
	apiKey, err := c.fetchAPIKey(ctx, videoID)
	if err != nil {
		return nil, err
	}

	player, err := c.fetchPlayer(ctx, videoID, apiKey)
	if err != nil {
		return nil, err
	}

	return buildTranscriptList(videoID, player)
}

// FetchTrack downloads a track, machine-translated when translateTo is set.
func (c *Client) FetchTrack(ctx context.Context, track Track, translateTo string) ([]models.Snippet, error) {
	fetchURL := strings.Replace(track.BaseURL, "&fmt=srv3", "", 1)
	if translateTo != "" {
		if !track.IsTranslatable {
			return nil, errors.Wrapf(ErrNotTranslatable, "track %s of video %s", track.LanguageCode, track.VideoID)
		}
		if !track.CanTranslateTo(translateTo) {
			return nil, errors.Wrapf(ErrTranslationLanguage, "%s for video %s", translateTo, track.VideoID)
		}
		fetchURL += "&tlang=" + url.QueryEscape(translateTo)
	}

	body, err := c.get(ctx, c.resolve(fetchURL))
	if err != nil {
		return nil, err
	}

	snippets, err := parseTimedText(body)
	if err != nil {
		return nil, errors.Wrapf(err, "video %s, track %s", track.VideoID, track.LanguageCode)
	}

	c.logger.WithFields(logrus.Fields{
		"video_id":     track.VideoID,
		"language":     track.LanguageCode,
		"translate_to": translateTo,
		"snippets":     len(snippets),
	}).Debug("Fetched transcript track")

	return snippets, nil
}

func (c *Client) fetchAPIKey(ctx context.Context, videoID string) (string, error) {
	watchURL := c.resolve("/watch?v=" + url.QueryEscape(videoID))

	page, err := c.get(ctx, watchURL)
	if err != nil {
		return "", err
	}

	if bytes.Contains(page, []byte(`action="https://consent.youtube.com/s"`)) {
		if err := c.acceptConsent(page); err != nil {
			return "", errors.Wrapf(err, "video %s", videoID)
		}
		if page, err = c.get(ctx, watchURL); err != nil {
			return "", err
		}
		if bytes.Contains(page, []byte(`action="https://consent.youtube.com/s"`)) {
			return "", errors.Wrapf(ErrVideoUnavailable, "video %s: consent cookie was not accepted", videoID)
		}
	}

	match := apiKeyPattern.FindSubmatch(page)
	if match == nil {
		if bytes.Contains(page, []byte(`class="g-recaptcha"`)) {
			return "", errors.Wrapf(ErrTooManyRequests, "video %s", videoID)
		}
		return "", errors.Wrapf(ErrVideoUnplayable, "video %s: no innertube key in watch page", videoID)
	}
	return string(match[1]), nil
}

func (c *Client) acceptConsent(page []byte) error {
	match := consentValuePattern.FindSubmatch(page)
	if match == nil {
		return errors.New("failed to create consent cookie")
	}
	c.httpClient.Jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:  "CONSENT",
		Value: "YES+" + string(match[1]),
		Path:  "/",
	}})
	return nil
}

func (c *Client) fetchPlayer(ctx context.Context, videoID, apiKey string) (*playerResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"context": map[string]any{
			"client": map[string]string{
				"clientName":    innertubeClientName,
				"clientVersion": innertubeClientVersion,
			},
		},
		"videoId": videoID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode player request")
	}

	playerURL := c.resolve("/youtubei/v1/player?key=" + url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build player request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var player playerResponse
	if err := json.Unmarshal(body, &player); err != nil {
		return nil, errors.Wrapf(err, "decode player response for video %s", videoID)
	}
	return &player, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", rawURL)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", req.URL.Path)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.Wrapf(ErrTooManyRequests, "%s %s", req.Method, req.URL.Path)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}

// resolve turns a path or absolute URL into an absolute URL on the configured host.
func (c *Client) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}
