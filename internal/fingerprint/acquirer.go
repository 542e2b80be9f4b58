// File: internal/fingerprint/acquirer.go
package fingerprint

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/config"
)

// oracleExtractScript reads the JSON blob the oracle page renders into
// its lone <pre> element.
const oracleExtractScript = `document.querySelector("pre").textContent`

// Acquirer drives the browser to the fingerprint oracle and turns the
// response into a Fingerprint.
//
// Acquire never returns an error: every failure mode (navigation error,
// undersized blob, malformed JSON, missing sub-fields) degrades to the
// injected fallback profile so that losing fingerprint data cannot
// abort the parent collection workflow. The result's Source field tells
// callers which path was taken.
type Acquirer struct {
	driver   schemas.BrowserDriver
	cfg      config.OracleConfig
	deriver  *Deriver
	fallback func() *schemas.Fingerprint
	logger   *zap.Logger
}

// NewAcquirer wires an Acquirer. fallback may be nil, selecting the
// canonical profile; tests inject their own to observe the degradation
// path.
func NewAcquirer(driver schemas.BrowserDriver, cfg config.OracleConfig, fallback func() *schemas.Fingerprint, logger *zap.Logger) *Acquirer {
	if fallback == nil {
		fallback = FallbackProfile
	}
	return &Acquirer{
		driver:   driver,
		cfg:      cfg,
		deriver:  NewDeriver(nil),
		fallback: fallback,
		logger:   logger.Named("acquirer"),
	}
}

// Acquire probes the oracle through the browser session and returns a
// usable Fingerprint, live or fallback.
func (a *Acquirer) Acquire(ctx context.Context) *schemas.Fingerprint {
	a.logger.Info("Probing fingerprint oracle", zap.String("url", a.cfg.URL))

	if err := a.driver.Navigate(ctx, a.cfg.URL); err != nil {
		return a.degrade("oracle navigation failed", err)
	}

	// Give the page a bounded settle window to render its blob.
	select {
	case <-time.After(a.cfg.SettleWait):
	case <-ctx.Done():
		return a.degrade("context cancelled during oracle settle", ctx.Err())
	}

	blob, err := a.driver.Evaluate(ctx, oracleExtractScript)
	if err != nil {
		return a.degrade("oracle blob extraction failed", err)
	}
	if len(blob) < a.cfg.MinResponseBytes {
		a.logger.Warn("Oracle blob undersized, using fallback profile",
			zap.Int("bytes", len(blob)), zap.Int("min_bytes", a.cfg.MinResponseBytes))
		return a.fallback()
	}

	fp, err := ParseOracle([]byte(blob))
	if err != nil {
		return a.degrade("oracle blob unparseable", err)
	}

	// Fill in anything the oracle left out so the stored model is
	// always complete. Oracle-supplied strings stay authoritative.
	if fp.JA3Text == "" || fp.JA3Hash == "" {
		text, hash := a.deriver.JA3(fp)
		if fp.JA3Text == "" {
			fp.JA3Text = text
		}
		if fp.JA3Hash == "" {
			fp.JA3Hash = hash
		}
	}
	if fp.AkamaiText == "" {
		fp.AkamaiText = a.deriver.Akamai(fp)
	}
	if fp.AkamaiFingerprint == "" {
		fp.AkamaiFingerprint = fp.AkamaiText
	}

	a.logger.Info("Acquired live fingerprint",
		zap.String("ja3_hash", fp.JA3Hash),
		zap.Int("ciphers", len(fp.CipherSuites)),
		zap.Int("extensions", len(fp.Extensions)),
		zap.Int("groups", len(fp.SupportedGroups)))
	return fp
}

// degrade logs the failure and hands back the fallback profile.
// Degradation is a warning, not an error: the caller still gets a
// fully usable model.
func (a *Acquirer) degrade(msg string, err error) *schemas.Fingerprint {
	a.logger.Warn("Fingerprint acquisition degraded to fallback profile",
		zap.String("reason", msg), zap.Error(err))
	return a.fallback()
}
