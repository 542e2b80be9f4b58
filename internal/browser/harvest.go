// File: internal/browser/harvest.go
package browser

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/cookies"
)

// Harvest collects the page's cookies through both observation
// channels and unifies them. The DevTools protocol is authoritative
// because it sees HttpOnly cookies and full scope; document.cookie
// only contributes names the protocol missed, which happens when a
// cookie was set between the two reads.
func Harvest(ctx context.Context, driver schemas.BrowserDriver, cookieDomain string, logger *zap.Logger) []schemas.CookieRecord {
	var records []schemas.CookieRecord

	cdpCookies, err := driver.Cookies(ctx)
	if err != nil {
		logger.Warn("DevTools cookie read failed, relying on document.cookie", zap.Error(err))
	}
	for _, c := range cdpCookies {
		records = append(records, cookies.FromDevTools(c))
	}

	raw, err := driver.RawCookieString(ctx)
	if err != nil {
		logger.Warn("document.cookie read failed", zap.Error(err))
	}

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec.Name] = struct{}{}
	}
	for _, rec := range cookies.ParseScriptCookies(raw, cookieDomain) {
		if _, ok := seen[rec.Name]; ok {
			continue
		}
		seen[rec.Name] = struct{}{}
		records = append(records, rec)
	}

	logger.Debug("Harvested cookies",
		zap.Int("devtools", len(cdpCookies)),
		zap.Int("total", len(records)))
	return records
}
