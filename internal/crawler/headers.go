// File: internal/crawler/headers.go
// Description: Request-header construction for the two request shapes
// the crawl uses: a full-document navigation for page 1 and a Next.js
// React Server Component fetch for every page after it. Header values
// track the impersonated Chrome release so the application layer tells
// the same story as the TLS layer.

package crawler

import (
	"fmt"
	"strings"
)

// routerStateTree is the URL-encoded Next.js router state for the
// target's search route segment. The frontend sends it verbatim on
// every RSC pagination fetch.
const routerStateTree = "%5B%22%22%2C%7B%22children%22%3A%5B%22srp%22%2C%7B%22children%22%3A%5B%22__PAGE__%22%2C%7B%7D%2Cnull%2Cnull%5D%7D%2Cnull%2Cnull%5D%7D%2Cnull%2Cnull%2Ctrue%5D"

// HeaderBuilder produces per-page request headers for one crawl run.
type HeaderBuilder struct {
	chromeVersion string
	majorVersion  string
	referer       string
	rscPath       string
}

// NewHeaderBuilder wires a builder for the given Chrome version string
// ("136.0.7103.113" style; a bare major version also works).
func NewHeaderBuilder(chromeVersion, referer, rscPath string) *HeaderBuilder {
	major, _, _ := strings.Cut(chromeVersion, ".")
	return &HeaderBuilder{
		chromeVersion: chromeVersion,
		majorVersion:  major,
		referer:       referer,
		rscPath:       rscPath,
	}
}

// UserAgent returns the Chrome desktop user agent for the run's
// version. Chrome freezes the minor components to 0.0.0, so only the
// major version carries information.
func (h *HeaderBuilder) UserAgent() string {
	return fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s.0.0.0 Safari/537.36", h.majorVersion)
}

// ForPage returns the header set for one page request. cookieHeader may
// be empty when the transport's jar carries the session. refererURL
// overrides the configured referer for RSC pages, which cite the page-1
// URL they paginate from.
func (h *HeaderBuilder) ForPage(page int, refererURL, cookieHeader string) map[string]string {
	if page <= 1 {
		return h.page1Headers(cookieHeader)
	}
	return h.rscHeaders(refererURL, cookieHeader)
}

func (h *HeaderBuilder) page1Headers(cookieHeader string) map[string]string {
	headers := map[string]string{
		"User-Agent":                h.UserAgent(),
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
		"Accept-Encoding":           "gzip, deflate, br",
		"Referer":                   h.referer,
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Upgrade-Insecure-Requests": "1",
		"sec-ch-ua":                 fmt.Sprintf(`"Google Chrome";v="%s", "Chromium";v="%s", "Not-A.Brand";v="99"`, h.majorVersion, h.majorVersion),
		"sec-ch-ua-mobile":          "?0",
		"sec-ch-ua-platform":        `"Windows"`,
	}
	if cookieHeader != "" {
		headers["Cookie"] = cookieHeader
	}
	return headers
}

func (h *HeaderBuilder) rscHeaders(refererURL, cookieHeader string) map[string]string {
	headers := map[string]string{
		"User-Agent":             h.UserAgent(),
		"Accept":                 "text/x-component",
		"Accept-Language":        "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
		"Accept-Encoding":        "gzip, deflate, br",
		"Referer":                refererURL,
		"rsc":                    "1",
		"next-router-state-tree": routerStateTree,
		"next-url":               h.rscPath,
		"Sec-Fetch-Dest":         "empty",
		"Sec-Fetch-Mode":         "cors",
		"Sec-Fetch-Site":         "same-origin",
		"sec-ch-ua":              fmt.Sprintf(`"Chromium";v="%s", "Google Chrome";v="%s", "Not_A Brand";v="99"`, h.majorVersion, h.majorVersion),
		"sec-ch-ua-mobile":       "?0",
		"sec-ch-ua-platform":     `"Windows"`,
	}
	if cookieHeader != "" {
		headers["Cookie"] = cookieHeader
	}
	return headers
}
