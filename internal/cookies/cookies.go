// File: internal/cookies/cookies.go
// Description: Normalization of the heterogeneous cookie observation
// channels (DevTools protocol, document.cookie, mobile WebDriver) into
// the canonical CookieRecord, plus the name-keyed merge that unifies
// them. Adapters, not inheritance: each source kind gets one function
// producing the same shape, and merge only ever sees canonical records.

package cookies

import (
	"strings"
	"time"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
)

// Defaults applied when a source does not report a field. Script-level
// observations run in a secure first-party context, hence the stricter
// defaults; WebDriver dicts historically under-report both flags.
const (
	DefaultPath           = "/"
	scriptDefaultSameSite = "None"
)

// FromDevTools normalizes a DevTools-protocol cookie. The protocol
// reports expiry as unix seconds with -1 for session cookies.
func FromDevTools(c schemas.DevToolsCookie) schemas.CookieRecord {
	rec := schemas.CookieRecord{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
	if rec.Path == "" {
		rec.Path = DefaultPath
	}
	if c.Expires > 0 {
		t := time.Unix(int64(c.Expires), 0).UTC()
		rec.Expires = &t
	}
	return rec
}

// ParseScriptCookies splits a document.cookie string ("a=1; b=2") into
// canonical records. Script-level reads expose neither scope nor flags,
// so the target's cookie domain and the script-source defaults fill
// the gaps.
func ParseScriptCookies(raw, defaultDomain string) []schemas.CookieRecord {
	if raw == "" {
		return nil
	}

	var records []schemas.CookieRecord
	for _, pair := range strings.Split(raw, "; ") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		records = append(records, schemas.CookieRecord{
			Name:     strings.TrimSpace(name),
			Value:    strings.TrimSpace(value),
			Domain:   defaultDomain,
			Path:     DefaultPath,
			Secure:   true,
			SameSite: scriptDefaultSameSite,
		})
	}
	return records
}

// FromWebDriver normalizes a WebDriver cookie dict (Appium/Selenium
// shape, which spells expiry "expiry").
func FromWebDriver(c map[string]any, defaultDomain string) schemas.CookieRecord {
	rec := schemas.CookieRecord{
		Name:     stringField(c, "name"),
		Value:    stringField(c, "value"),
		Domain:   stringField(c, "domain"),
		Path:     stringField(c, "path"),
		HTTPOnly: boolField(c, "httpOnly"),
		Secure:   boolField(c, "secure"),
		SameSite: stringField(c, "sameSite"),
	}
	if rec.Domain == "" {
		rec.Domain = defaultDomain
	}
	if rec.Path == "" {
		rec.Path = DefaultPath
	}
	if expiry, ok := c["expiry"].(float64); ok && expiry > 0 {
		t := time.Unix(int64(expiry), 0).UTC()
		rec.Expires = &t
	}
	return rec
}

// Merge folds incoming records into existing ones. A record whose name
// already exists replaces it in place, preserving positional stability;
// new names are appended in arrival order. Duplicate names inside
// incoming resolve to the later entry. The operation is idempotent:
// Merge(X, X) == X.
//
// Identity is Name alone, deliberately collapsing domain/path scope
// (see the CookieRecord doc comment).
func Merge(existing, incoming []schemas.CookieRecord) []schemas.CookieRecord {
	merged := make([]schemas.CookieRecord, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, rec := range merged {
		index[rec.Name] = i
	}

	for _, rec := range incoming {
		if i, ok := index[rec.Name]; ok {
			merged[i] = rec
			continue
		}
		index[rec.Name] = len(merged)
		merged = append(merged, rec)
	}
	return merged
}

// HeaderString renders records as a Cookie request header value.
// Records with an empty name or value are skipped, matching what a
// browser would send.
func HeaderString(records []schemas.CookieRecord) string {
	pairs := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Name == "" || rec.Value == "" {
			continue
		}
		pairs = append(pairs, rec.Name+"="+rec.Value)
	}
	return strings.Join(pairs, "; ")
}

// ToDict flattens records into a name->value map. Later duplicates win,
// consistent with Merge precedence.
func ToDict(records []schemas.CookieRecord) map[string]string {
	dict := make(map[string]string, len(records))
	for _, rec := range records {
		if rec.Name == "" || rec.Value == "" {
			continue
		}
		dict[rec.Name] = rec.Value
	}
	return dict
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
