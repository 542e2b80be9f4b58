// File: api/schemas/cookies.go
package schemas

import "time"

// CookieProvenance tags a persisted cookie set with the phase that
// produced it.
type CookieProvenance string

const (
	// ProvenanceBrowser marks cookies harvested from the live browser
	// during the collection phase.
	ProvenanceBrowser CookieProvenance = "browser"
	// ProvenanceCrawled marks cookies updated by the replay client
	// during a crawl run.
	ProvenanceCrawled CookieProvenance = "crawled"
)

// CookieRecord is the canonical cookie shape every observation channel
// (DevTools protocol, document.cookie, WebDriver) is normalized into
// before any merge logic runs.
//
// Identity within one session is Name alone. Domain and path are kept
// for export formats but deliberately do not participate in identity;
// two cookies that differ only in scope collapse to one record. That
// mirrors the observed upstream contract and is a known correctness
// gap, not an invitation to "fix" silently (see DESIGN.md).
type CookieRecord struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain"`
	Path     string     `json:"path"`
	Expires  *time.Time `json:"expires,omitempty"`
	HTTPOnly bool       `json:"httpOnly"`
	Secure   bool       `json:"secure"`
	SameSite string     `json:"sameSite,omitempty"`
}

// DevToolsCookie is the wire shape of a cookie returned by the
// DevTools protocol (Network.getCookies). Expires is a unix timestamp
// in seconds; -1 means a session cookie.
type DevToolsCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}
