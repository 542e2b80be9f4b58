// File: internal/browser/collector.go
// Description: The collection-phase workflow: warm a real browser
// session on the target, harvest its cookies, probe the fingerprint
// oracle through the same session and persist the combined identity.

package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/config"
	"github.com/xkilldash9x/fpcrawl/internal/crawler"
)

// acquirer is the slice of the fingerprint package the collector needs.
type acquirer interface {
	Acquire(ctx context.Context) *schemas.Fingerprint
}

// CollectResult reports what one collection run produced.
type CollectResult struct {
	FingerprintID int64
	CookieID      int64
	Fingerprint   *schemas.Fingerprint
	Meta          schemas.FingerprintMeta
	CookieCount   int
	SearchBlocked bool
}

// Collector runs the collection phase against a live browser.
type Collector struct {
	driver   schemas.BrowserDriver
	acquirer acquirer
	repo     schemas.Repository
	cfg      *config.Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewCollector(driver schemas.BrowserDriver, acq acquirer, repo schemas.Repository, cfg *config.Config, logger *zap.Logger) *Collector {
	return &Collector{
		driver:   driver,
		acquirer: acq,
		repo:     repo,
		cfg:      cfg,
		logger:   logger.Named("collector"),
		now:      time.Now,
	}
}

var chromeVersionRe = regexp.MustCompile(`Chrome/([0-9][0-9.]*)`)

// DetectChromeVersion reads the browser's own version out of its user
// agent. The device name stored with the identity is derived from it,
// and the crawl phase echoes the same version in its headers.
func DetectChromeVersion(ctx context.Context, driver schemas.BrowserDriver) (string, error) {
	ua, err := driver.Evaluate(ctx, "navigator.userAgent")
	if err != nil {
		return "", err
	}
	m := chromeVersionRe.FindStringSubmatch(ua)
	if m == nil {
		return "", fmt.Errorf("browser: no Chrome token in user agent %q", ua)
	}
	return m[1], nil
}

// Run executes the collection workflow. keyword may be empty, in which
// case only the main page is visited and its cookies become the
// identity's baseline.
func (c *Collector) Run(ctx context.Context, keyword string) (*CollectResult, error) {
	chromeVersion, err := DetectChromeVersion(ctx, c.driver)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Collection phase started", zap.String("chrome_version", chromeVersion))

	if err := c.driver.Navigate(ctx, c.cfg.Target.Referer); err != nil {
		return nil, fmt.Errorf("collector: open main page: %w", err)
	}
	if html, ok := c.waitForPage(ctx, nil); !ok {
		c.logger.Warn("Main page never settled", zap.Int("bytes", len(html)))
	} else if c.looksBlocked(html) {
		return nil, fmt.Errorf("collector: main page is blocked")
	}

	mainCookies := Harvest(ctx, c.driver, c.cfg.Target.CookieDomain, c.logger)
	finalCookies := mainCookies
	searchBlocked := false

	if keyword != "" {
		searchCookies, blocked, err := c.visitSearch(ctx, keyword)
		if err != nil {
			return nil, err
		}
		searchBlocked = blocked
		if blocked {
			c.logger.Warn("Search page blocked, keeping main page cookies")
		} else {
			finalCookies = searchCookies
		}
	}

	// The oracle probe runs last so the fingerprint reflects the
	// session after it has behaved like a real visitor.
	fp := c.acquirer.Acquire(ctx)

	meta := schemas.FingerprintMeta{
		DeviceName:  "Chrome " + chromeVersion,
		Browser:     "chrome",
		BrowserVer:  chromeVersion,
		OSVersion:   "Windows 10",
		CollectedAt: c.now(),
	}

	fpID, err := c.repo.SaveFingerprint(ctx, fp, meta)
	if err != nil {
		return nil, fmt.Errorf("collector: persist fingerprint: %w", err)
	}
	cookieID, err := c.repo.SaveCookies(ctx, finalCookies, meta, fpID, schemas.ProvenanceBrowser)
	if err != nil {
		return nil, fmt.Errorf("collector: persist cookies: %w", err)
	}

	c.logger.Info("Collection phase finished",
		zap.Int64("fingerprint_id", fpID),
		zap.Int64("cookie_id", cookieID),
		zap.String("ja3_hash", fp.JA3Hash),
		zap.String("source", string(fp.Source)),
		zap.Int("cookies", len(finalCookies)),
		zap.Bool("search_blocked", searchBlocked))

	return &CollectResult{
		FingerprintID: fpID,
		CookieID:      cookieID,
		Fingerprint:   fp,
		Meta:          meta,
		CookieCount:   len(finalCookies),
		SearchBlocked: searchBlocked,
	}, nil
}

// visitSearch navigates to page 1 of the search results and reports
// the harvested cookies plus whether the page looks blocked.
func (c *Collector) visitSearch(ctx context.Context, keyword string) ([]schemas.CookieRecord, bool, error) {
	url, err := crawler.BuildPageURL(c.cfg.Target.SearchURL, keyword, 1, crawler.NewTraceID(c.now()), "")
	if err != nil {
		return nil, false, err
	}
	if err := c.driver.Navigate(ctx, url); err != nil {
		return nil, false, fmt.Errorf("collector: open search page: %w", err)
	}

	html, found := c.waitForPage(ctx, c.cfg.Crawler.ContentMarkers)
	if c.looksBlocked(html) || !found {
		return nil, true, nil
	}

	return Harvest(ctx, c.driver, c.cfg.Target.CookieDomain, c.logger), false, nil
}

// waitForPage polls the document until it crosses the page-1 size floor
// and, when markers are given, one of them appears. The poll is
// bounded: MarkerAttempts tries, MarkerInterval apart, no implicit
// timeout behind them. Returns the last snapshot either way.
func (c *Collector) waitForPage(ctx context.Context, markers []string) (string, bool) {
	var html string
	for attempt := 0; attempt < c.cfg.Browser.MarkerAttempts; attempt++ {
		var err error
		html, err = c.driver.Evaluate(ctx, "document.documentElement.outerHTML")
		if err != nil {
			c.logger.Debug("Page snapshot failed", zap.Int("attempt", attempt), zap.Error(err))
		} else if len(html) >= c.cfg.Crawler.Page1MinBytes && containsAnyMarker(html, markers) {
			return html, true
		}

		select {
		case <-time.After(c.cfg.Browser.MarkerInterval):
		case <-ctx.Done():
			return html, false
		}
	}
	return html, false
}

// looksBlocked applies the block heuristics to a page snapshot.
func (c *Collector) looksBlocked(html string) bool {
	if len(html) < c.cfg.Crawler.Page1MinBytes {
		return true
	}
	lower := strings.ToLower(html)
	for _, marker := range c.cfg.Crawler.BlockMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// containsAnyMarker reports whether any marker appears in the snapshot.
// An empty marker list matches trivially.
func containsAnyMarker(html string, markers []string) bool {
	if len(markers) == 0 {
		return true
	}
	for _, m := range markers {
		if strings.Contains(html, m) {
			return true
		}
	}
	return false
}
