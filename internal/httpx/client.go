package httpx

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DesktopFirefoxUserAgent is the fixed User-Agent injected unless the
// caller overrides it with their own header.
const DesktopFirefoxUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:95.0) Gecko/20100101 Firefox/95.0"

// ClientOptions configures NewClient.
type ClientOptions struct {
	TimeoutSeconds  int
	Proxy           string
	FollowRedirects bool
	MaxRedirects    int
}

// uaRoundTripper injects the fixed desktop User-Agent on every request
// unless one is already set.
type uaRoundTripper struct {
	base http.RoundTripper
	ua   string
}

func (u *uaRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", u.ua)
	}
	return u.base.RoundTrip(req)
}

// NewClient builds the shared HTTP client used by one fabric (one per
// scan stage), the way internal/shards/researcher.go builds its
// ResearcherShard client: an explicit Timeout and a CheckRedirect policy,
// here with lax TLS verification since this is a pentest tool probing
// targets it does not control the certificate chain of.
func NewClient(opts ClientOptions) (*http.Client, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy url %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: &uaRoundTripper{base: transport, ua: DesktopFirefoxUserAgent},
		Timeout:   time.Duration(opts.TimeoutSeconds) * time.Second,
	}

	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}

	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
	}

	return client, nil
}
