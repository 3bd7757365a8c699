package youtube

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	webshareDomain = "p.webshare.io"
	websharePort   = 80
)

// ProxyConfig routes requests to YouTube through a proxy. Webshare
// credentials take precedence over the generic HTTP/HTTPS proxy URLs.
type ProxyConfig struct {
	WebshareUsername string
	WebsharePassword string
	// Countries restricts Webshare exit IPs, e.g. ["us", "de"].
	Countries []string

	HTTPURL  string
	HTTPSURL string
}

func (p ProxyConfig) rotating() bool {
	return p.WebshareUsername != "" && p.WebsharePassword != ""
}

// WebshareURL is the rotating residential proxy endpoint for the credentials.
func (p ProxyConfig) WebshareURL() string {
	user := p.WebshareUsername
	for _, c := range p.Countries {
		if c = strings.TrimSpace(c); c != "" {
			user += "-" + strings.ToUpper(c)
		}
	}
	return fmt.Sprintf("http://%s-rotate:%s@%s:%d/",
		url.QueryEscape(user), url.QueryEscape(p.WebsharePassword), webshareDomain, websharePort)
}

func (p ProxyConfig) proxyFunc() (func(*http.Request) (*url.URL, error), error) {
	if p.rotating() {
		u, err := url.Parse(p.WebshareURL())
		if err != nil {
			return nil, errors.Wrap(err, "invalid webshare proxy credentials")
		}
		return http.ProxyURL(u), nil
	}

	if p.HTTPURL == "" && p.HTTPSURL == "" {
		return nil, nil
	}

	httpURL, err := parseProxyURL(p.HTTPURL, p.HTTPSURL)
	if err != nil {
		return nil, err
	}
	httpsURL, err := parseProxyURL(p.HTTPSURL, p.HTTPURL)
	if err != nil {
		return nil, err
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" {
			return httpsURL, nil
		}
		return httpURL, nil
	}, nil
}

func parseProxyURL(primary, fallback string) (*url.URL, error) {
	raw := primary
	if raw == "" {
		raw = fallback
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid proxy URL %q", raw)
	}
	return u, nil
}
