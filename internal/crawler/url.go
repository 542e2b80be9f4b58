// File: internal/crawler/url.go
package crawler

import (
	"fmt"
	"net/url"
	"strconv"
)

// BuildPageURL assembles the search URL for one page of results. Page 1
// is the plain HTML search; pages beyond it add the page index and the
// _rsc cache-buster because they are fetched as React Server Component
// payloads, not full documents.
func BuildPageURL(searchURL, keyword string, page int, traceID, rscParam string) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", fmt.Errorf("crawler: parse search URL %q: %w", searchURL, err)
	}

	q := u.Query()
	q.Set("q", keyword)
	q.Set("channel", "user")
	q.Set("traceid", traceID)
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
		q.Set("_rsc", rscParam)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
