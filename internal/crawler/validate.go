// File: internal/crawler/validate.go
// Description: Response classification. Every page lands in exactly one
// of three buckets: has content, blocked, or merely empty. Page 1 is a
// full HTML document and gets a structural check on top of the
// substring markers; later pages are RSC streams where only size and
// substrings are meaningful.

package crawler

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/fpcrawl/internal/config"
)

// Validation classifies one page response.
type Validation struct {
	HasContent bool
	Blocked    bool
}

// Validator applies the configured thresholds and markers.
type Validator struct {
	cfg config.CrawlerConfig
}

func NewValidator(cfg config.CrawlerConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate classifies a response body for the given page number.
//
// A block marker classifies the page as blocked on every page, whatever
// the body size. Below that, page 1 counts as blocked when the body is
// under the HTML floor, later pages when under the RSC floor, because a
// real result stream is large and block pages are not.
func (v *Validator) Validate(body []byte, page int) Validation {
	if page <= 1 {
		return Validation{
			HasContent: v.page1HasContent(body),
			Blocked:    len(body) < v.cfg.Page1MinBytes || containsAny(body, v.cfg.BlockMarkers),
		}
	}
	return Validation{
		HasContent: v.rscHasContent(body),
		Blocked:    len(body) < v.cfg.PageNMinBytes || containsAny(body, v.cfg.BlockMarkers),
	}
}

// page1HasContent looks for product containers structurally first.
// Class and id attribute matches survive markup reshuffles that break
// raw substring search; the substring scan remains as a fallback for
// markers that live in inline script rather than attributes.
func (v *Validator) page1HasContent(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err == nil {
		for _, marker := range v.cfg.ContentMarkers {
			sel := doc.Find("[class*='" + marker + "'], [id*='" + marker + "']")
			if sel.Length() > 0 {
				return true
			}
		}
	}
	return containsAny(body, v.cfg.ContentMarkers)
}

func (v *Validator) rscHasContent(body []byte) bool {
	lower := bytes.ToLower(body)
	for _, marker := range v.cfg.RSCMarkers {
		if bytes.Contains(lower, []byte(strings.ToLower(marker))) {
			return true
		}
	}
	return false
}

func containsAny(body []byte, markers []string) bool {
	for _, marker := range markers {
		if bytes.Contains(body, []byte(marker)) {
			return true
		}
	}
	return false
}
