// File: api/schemas/interfaces.go
// Description: Capability interfaces consumed by the core. The browser,
// the replay HTTP client, storage and artifact output are external
// collaborators; the core only depends on these contracts, which keeps
// every component mockable in tests.

package schemas

import (
	"context"
	"time"
)

// BrowserDriver is the minimal capability surface the core needs from a
// headless browser. No automation protocol is assumed beyond these four
// operations; internal/browser provides a chromedp-backed
// implementation.
type BrowserDriver interface {
	// Navigate loads the given URL and returns once the navigation
	// committed. Settle waits are the caller's concern.
	Navigate(ctx context.Context, url string) error

	// Evaluate runs a JavaScript expression in the page and returns its
	// string result.
	Evaluate(ctx context.Context, expr string) (string, error)

	// Cookies returns every cookie visible to the DevTools protocol,
	// including HttpOnly cookies that document.cookie cannot see.
	Cookies(ctx context.Context) ([]DevToolsCookie, error)

	// RawCookieString returns the page's document.cookie value.
	RawCookieString(ctx context.Context) (string, error)
}

// ReplayResponse is the distilled result of one replay request.
type ReplayResponse struct {
	Status     int
	Body       []byte
	SetCookies []CookieRecord
	Protocol   string
}

// ReplayClient issues requests through the fingerprint-impersonating
// transport. Implementations hold an evolving cookie jar across calls,
// so SetCookies seeds the jar once and Cookies reads the jar's current
// state after any number of requests.
type ReplayClient interface {
	Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*ReplayResponse, error)
	SetCookies(records []CookieRecord)
	Cookies() []CookieRecord
}

// StoredIdentity is the unit the crawl phase loads: the most recent
// fingerprint row together with the newest cookie set referencing it.
type StoredIdentity struct {
	FingerprintID int64
	Meta          FingerprintMeta
	Fingerprint   *Fingerprint
	Cookies       []CookieRecord
}

// Repository persists fingerprints and cookie sets. A cookie row always
// references the fingerprint row it was collected under; SaveFingerprint
// must therefore succeed before the first SaveCookies call.
type Repository interface {
	SaveFingerprint(ctx context.Context, fp *Fingerprint, meta FingerprintMeta) (int64, error)
	SaveCookies(ctx context.Context, records []CookieRecord, meta FingerprintMeta, fingerprintID int64, provenance CookieProvenance) (int64, error)

	// LoadLatest returns ErrNoIdentity (from internal/store) wrapped in
	// a nil StoredIdentity when nothing has been collected yet.
	LoadLatest(ctx context.Context) (*StoredIdentity, error)
}

// ArtifactSink writes the file artifacts a run produces: raw page
// bodies, the JSON run summary and the Netscape cookie jar.
type ArtifactSink interface {
	SavePage(content []byte, pageNumber int, chromeVersion string, ext string) (string, error)
	SaveJSON(v any, filename string) (string, error)
	SaveCookieJar(records []CookieRecord, filename string) (string, error)
}
