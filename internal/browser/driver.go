// File: internal/browser/driver.go
// Description: chromedp-backed implementation of the BrowserDriver
// contract. One Driver owns one Chrome process; the collection phase
// reuses it across the target site and the fingerprint oracle so both
// observations come from the same TLS session context.

package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/config"
)

// Driver drives a headless (or headful) Chrome through the DevTools
// protocol.
type Driver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger
}

var _ schemas.BrowserDriver = (*Driver)(nil)

// execOptions translates the browser config into allocator options.
func execOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	return opts
}

// NewDriver launches Chrome and returns a ready Driver. Close must be
// called to reap the process.
func NewDriver(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, execOptions(cfg)...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Running an empty task list forces the browser to start, so a
	// missing Chrome binary fails here instead of on first navigation.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("browser: launch chrome: %w", err)
	}

	logger.Info("Chrome launched",
		zap.Bool("headless", cfg.Headless),
		zap.String("user_data_dir", cfg.UserDataDir))

	return &Driver{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      logger.Named("browser"),
	}, nil
}

// Close shuts the browser down. Safe to call once.
func (d *Driver) Close() {
	d.cancel()
	d.allocCancel()
}

// run executes actions under both the driver's lifetime and the
// caller's context, bounded by the configured navigation timeout.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, d.cfg.NavigateTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// Navigate loads the URL and returns once the navigation committed.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("Navigating", zap.String("url", url))
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("browser: navigate to %s: %w", url, err)
	}
	return nil
}

// Evaluate runs a JavaScript expression and returns its string result.
func (d *Driver) Evaluate(ctx context.Context, expr string) (string, error) {
	var result string
	if err := d.run(ctx, chromedp.Evaluate(expr, &result)); err != nil {
		return "", fmt.Errorf("browser: evaluate: %w", err)
	}
	return result, nil
}

// Cookies returns every cookie the DevTools protocol can see, HttpOnly
// included.
func (d *Driver) Cookies(ctx context.Context) ([]schemas.DevToolsCookie, error) {
	var raw []*network.Cookie
	err := d.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		cookies, err := network.GetCookies().Do(c)
		if err != nil {
			return err
		}
		raw = cookies
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("browser: get cookies: %w", err)
	}

	out := make([]schemas.DevToolsCookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, schemas.DevToolsCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite.String(),
		})
	}
	return out, nil
}

// RawCookieString returns document.cookie for the current page.
func (d *Driver) RawCookieString(ctx context.Context) (string, error) {
	return d.Evaluate(ctx, "document.cookie")
}
