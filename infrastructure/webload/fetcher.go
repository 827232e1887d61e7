// Package webload fetches wasm modules over HTTP from an allow-list of
// origins.
package webload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainerrors "github.com/sorcio/wotto/domain/errors"
)

var wasmMagic = []byte("\x00asm")

// Option configures a Fetcher.
type Option func(*config)

type config struct {
	origins      map[string]struct{}
	maxSize      int64
	timeout      time.Duration
	maxRedirects int
	transport    http.RoundTripper
}

func defaultConfig() config {
	return config{
		origins:      make(map[string]struct{}),
		maxSize:      4 << 20,
		timeout:      30 * time.Second,
		maxRedirects: 10,
	}
}

// WithAllowedOrigins adds origins, given as URLs, that modules may be
// fetched from. Only the scheme, host and port of each are kept.
// Entries that do not parse as http or https URLs are ignored.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *config) {
		for _, o := range origins {
			u, err := url.Parse(o)
			if err != nil || !webScheme(u.Scheme) || u.Host == "" {
				continue
			}
			c.origins[Origin(u)] = struct{}{}
		}
	}
}

// WithMaxSize sets the largest module accepted, in bytes.
func WithMaxSize(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithTimeout bounds a whole fetch, redirects and body included.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport sets the round tripper used for requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// Fetcher downloads wasm modules. It is safe for concurrent use.
type Fetcher struct {
	cfg    config
	client *http.Client
}

// NewFetcher returns a Fetcher. Without WithAllowedOrigins every URL is
// rejected.
func NewFetcher(opts ...Option) *Fetcher {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	f := &Fetcher{cfg: cfg}
	f.client = &http.Client{
		Timeout:   cfg.timeout,
		Transport: cfg.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.maxRedirects)
			}
			return f.checkURL(req.URL, req.URL.String())
		},
	}
	return f
}

// Origin returns the scheme://host[:port] of u, lowercased and without
// the default port of the scheme.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return scheme + "://" + host + ":" + port
	}
	return scheme + "://" + host
}

// Check parses raw and verifies that it may be fetched.
func (f *Fetcher) Check(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &domainerrors.WebLoadError{URL: raw, Reason: domainerrors.ReasonInvalidURL, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &domainerrors.WebLoadError{URL: raw, Reason: domainerrors.ReasonInvalidURL}
	}
	if err := f.checkURL(u, raw); err != nil {
		return nil, err
	}
	return u, nil
}

func (f *Fetcher) checkURL(u *url.URL, raw string) error {
	if u.User != nil {
		return &domainerrors.WebLoadError{URL: redact(u), Reason: domainerrors.ReasonCredentials}
	}
	if !webScheme(u.Scheme) {
		return &domainerrors.WebLoadError{URL: raw, Reason: domainerrors.ReasonRejected}
	}
	if _, ok := f.cfg.origins[Origin(u)]; !ok {
		return &domainerrors.WebLoadError{URL: raw, Reason: domainerrors.ReasonRejected}
	}
	return nil
}

// Fetch downloads the module at u, which must have passed Check. The body
// must be at most the configured size and start with the wasm magic.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	raw := u.String()
	fail := func(reason domainerrors.WebLoadReason, err error) error {
		return &domainerrors.WebLoadError{URL: raw, Reason: reason, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fail(domainerrors.ReasonInvalidURL, err)
	}
	req.Header.Set("Accept", "application/wasm, application/octet-stream")

	resp, err := f.client.Do(req)
	if err != nil {
		var refused *domainerrors.WebLoadError
		if errors.As(err, &refused) {
			return nil, refused
		}
		return nil, fail(domainerrors.ReasonFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(domainerrors.ReasonFetchFailed, fmt.Errorf("status %s", resp.Status))
	}
	if resp.ContentLength > f.cfg.maxSize {
		return nil, fail(domainerrors.ReasonTooLarge, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.maxSize+1))
	if err != nil {
		return nil, fail(domainerrors.ReasonFetchFailed, err)
	}
	if int64(len(body)) > f.cfg.maxSize {
		return nil, fail(domainerrors.ReasonTooLarge, nil)
	}
	if !bytes.HasPrefix(body, wasmMagic) {
		return nil, fail(domainerrors.ReasonNotWasm, nil)
	}
	return body, nil
}

func webScheme(scheme string) bool {
	s := strings.ToLower(scheme)
	return s == "http" || s == "https"
}

// redact drops the userinfo of u for error messages.
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	return c.String()
}
