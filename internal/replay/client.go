// File: internal/replay/client.go
// Description: The replay HTTP client: a session-scoped http.Client
// whose transport reproduces the stored browser fingerprint (uTLS
// ClientHello + the fingerprint's HTTP/2 SETTINGS) and whose cookie
// jar evolves across requests exactly like the browser session it
// impersonates.

package replay

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/config"
)

// Client issues requests through the impersonating transport. It is
// owned by a single orchestrator run; no concurrent mutation occurs.
type Client struct {
	http      *http.Client
	jar       http.CookieJar
	cookieURL *url.URL
	cfg       schemas.ReplayConfig
	logger    *zap.Logger
}

var _ schemas.ReplayClient = (*Client)(nil)

// NewClient builds a replay client for one crawl session.
//
// The HTTP/2 SETTINGS knobs the x/net/http2 package exposes
// (header-table size, max header list size) are taken from the stored
// fingerprint; the remaining frame behavior (window update, priority,
// pseudo-header order) is fixed by the transport and matches the
// Chrome profile family the fingerprints come from.
func NewClient(rc schemas.ReplayConfig, fp *schemas.Fingerprint, opts config.ReplayConfig, cookieDomain string, logger *zap.Logger) (*Client, error) {
	var proxyURL *url.URL
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("replay: parse proxy URL %q: %w", opts.Proxy, err)
		}
		proxyURL = u
	}

	dialFn := utlsDialer(helloIDFor(rc.MinVersion, rc.Downgraded), proxyURL)

	transport := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
			return dialFn(ctx, network, addr, tlsCfg)
		},
		// We set Accept-Encoding ourselves to preserve the browser's
		// header shape, so the transport must not add its own.
		DisableCompression: true,
		IdleConnTimeout:    90 * time.Second,
	}
	if fp != nil {
		if v, ok := fp.HTTP2Settings["SETTINGS_HEADER_TABLE_SIZE"]; ok {
			transport.MaxDecoderHeaderTableSize = v
			transport.MaxEncoderHeaderTableSize = v
		}
		if v, ok := fp.HTTP2Settings["SETTINGS_MAX_HEADER_LIST_SIZE"]; ok {
			transport.MaxHeaderListSize = v
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("replay: create cookie jar: %w", err)
	}

	cookieURL, err := url.Parse("https://" + strings.TrimPrefix(cookieDomain, ".") + "/")
	if err != nil {
		return nil, fmt.Errorf("replay: parse cookie domain %q: %w", cookieDomain, err)
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   opts.Timeout,
		},
		jar:       jar,
		cookieURL: cookieURL,
		cfg:       rc,
		logger:    logger.Named("replay-client"),
	}, nil
}

// Get issues one request with the given header set. Set-Cookie headers
// from the response are folded into the session jar by net/http; the
// returned ReplayResponse additionally carries them as canonical
// records so the orchestrator can merge them into its own cookie set.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (*schemas.ReplayResponse, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("replay: build request: %w", err)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replay: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("replay: decode response body: %w", err)
	}

	c.logger.Debug("Replay request completed",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.String("proto", resp.Proto),
		zap.Duration("elapsed", time.Since(start)))

	return &schemas.ReplayResponse{
		Status:     resp.StatusCode,
		Body:       body,
		SetCookies: recordsFromHTTP(resp.Cookies(), c.cookieURL.Host),
		Protocol:   resp.Proto,
	}, nil
}

// SetCookies seeds the session jar from stored records. Records keep
// their own scope when present, otherwise they attach to the session's
// canonical cookie domain.
func (c *Client) SetCookies(records []schemas.CookieRecord) {
	httpCookies := make([]*http.Cookie, 0, len(records))
	for _, rec := range records {
		cookie := &http.Cookie{
			Name:   rec.Name,
			Value:  rec.Value,
			Path:   rec.Path,
			Secure: rec.Secure,
		}
		if rec.Expires != nil {
			cookie.Expires = *rec.Expires
		}
		httpCookies = append(httpCookies, cookie)
	}
	c.jar.SetCookies(c.cookieURL, httpCookies)
}

// Cookies reads the jar's current state as canonical records. The jar
// only exposes name and value, so scope and flags take the
// script-source defaults the upstream pipeline uses for replay-derived
// cookies.
func (c *Client) Cookies() []schemas.CookieRecord {
	jarCookies := c.jar.Cookies(c.cookieURL)
	records := make([]schemas.CookieRecord, 0, len(jarCookies))
	for _, cookie := range jarCookies {
		records = append(records, schemas.CookieRecord{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   "." + c.cookieURL.Host,
			Path:     "/",
			Secure:   true,
			SameSite: "None",
		})
	}
	return records
}

// recordsFromHTTP converts parsed Set-Cookie headers into canonical
// records, defaulting scope to the session domain when the server
// omitted it.
func recordsFromHTTP(httpCookies []*http.Cookie, defaultHost string) []schemas.CookieRecord {
	records := make([]schemas.CookieRecord, 0, len(httpCookies))
	for _, cookie := range httpCookies {
		rec := schemas.CookieRecord{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   cookie.Domain,
			Path:     cookie.Path,
			HTTPOnly: cookie.HttpOnly,
			Secure:   cookie.Secure,
		}
		if rec.Domain == "" {
			rec.Domain = "." + defaultHost
		}
		if rec.Path == "" {
			rec.Path = "/"
		}
		if !cookie.Expires.IsZero() {
			t := cookie.Expires.UTC()
			rec.Expires = &t
		}
		switch cookie.SameSite {
		case http.SameSiteNoneMode:
			rec.SameSite = "None"
		case http.SameSiteLaxMode:
			rec.SameSite = "Lax"
		case http.SameSiteStrictMode:
			rec.SameSite = "Strict"
		}
		records = append(records, rec)
	}
	return records
}
