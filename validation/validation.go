package validation

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nijaru/transcript-server/errors"
)

// ExtractVideoID returns the YouTube video ID named by a URL or raw ID.
// A missing or unrecognised component yields ok == false.
func ExtractVideoID(urlOrID string) (string, bool) {
	if urlOrID == "" {
		return "", false
	}

	// Already looks like an ID
	if !strings.Contains(urlOrID, "://") && !strings.Contains(urlOrID, "/") && len(urlOrID) >= 8 {
		return urlOrID, true
	}

	parsedURL, err := url.Parse(urlOrID)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(parsedURL.Hostname())

	switch {
	case strings.Contains(host, "youtu.be"):
		id, _, _ := strings.Cut(strings.TrimPrefix(parsedURL.Path, "/"), "/")
		return id, id != ""

	case strings.Contains(host, "youtube.com"):
		if strings.HasPrefix(parsedURL.Path, "/watch") {
			id := parsedURL.Query().Get("v")
			return id, id != ""
		}
		if rest, ok := strings.CutPrefix(parsedURL.Path, "/shorts/"); ok {
			id, _, _ := strings.Cut(rest, "/")
			return id, id != ""
		}
	}

	return "", false
}

// ValidateYouTubeURL checks a URL handed to the audio downloader.
func ValidateYouTubeURL(urlStr string) error {
	const op = "validation.ValidateYouTubeURL"

	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return errors.InvalidInput(op, nil, "youtube_url is required")
	}

	parsedURL, err := url.ParseRequestURI(urlStr)
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid URL format")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.InvalidInput(op, nil, "URL must use HTTP or HTTPS")
	}

	host := strings.ToLower(parsedURL.Hostname())
	if !strings.Contains(host, "youtube.com") && !strings.Contains(host, "youtu.be") {
		return errors.InvalidInput(op, nil, "Only YouTube URLs are supported")
	}

	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFilename reduces an uploaded filename to a safe base name.
// It returns "" when nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" || name == "." {
		return ""
	}
	return name
}
