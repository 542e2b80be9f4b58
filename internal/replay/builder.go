// File: internal/replay/builder.go
// Description: Maps a stored Fingerprint onto the replay client's
// capability surface. The builder mirrors the acquirer's no-throw
// contract: malformed or missing inputs degrade to a minimal config
// instead of an error, because a crawl with an approximate fingerprint
// beats no crawl at all.

package replay

import (
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/fingerprint"
)

// defaultCertCompression is the certificate-compression algorithm every
// Chrome profile advertises.
const defaultCertCompression = "brotli"

// Builder converts fingerprints into replay configurations.
type Builder struct {
	deriver *fingerprint.Deriver
	logger  *zap.Logger
}

// NewBuilder constructs a Builder. The curve table is injected for the
// same reason it is on the deriver: tests substitute alternates.
func NewBuilder(curves map[string]uint16, logger *zap.Logger) *Builder {
	return &Builder{
		deriver: fingerprint.NewDeriver(curves),
		logger:  logger.Named("replay-builder"),
	}
}

// Build produces the ReplayConfig for a fingerprint. The stored
// JA3Text is preferred verbatim because it preserves the extension
// permutation the browser actually sent; synthesis from the field
// lists is the fallback. Grease and extension permutation are enabled
// by default to approximate Chrome's per-handshake randomization.
func (b *Builder) Build(fp *schemas.Fingerprint) schemas.ReplayConfig {
	cfg := schemas.ReplayConfig{
		EnableGrease:      true,
		PermuteExtensions: true,
		CertCompression:   defaultCertCompression,
		MinVersion:        "1.2",
	}
	if fp == nil {
		b.logger.Warn("Building replay config without a fingerprint; emitting minimal config")
		return cfg
	}

	cfg.JA3 = b.deriver.JA3Text(fp)
	if strings.Contains(string(fp.TLSVersion), "1.3") {
		cfg.MinVersion = "1.3"
	}
	cfg.SignatureAlgorithms = fp.SignatureAlgorithms

	return cfg
}

// Downgrade rewrites the JA3 version field from 772 (TLS 1.3) to 771
// (TLS 1.2) for replay clients that only impersonate TLS 1.2 hellos.
// Cipher, extension and group fields are untouched. The transform is
// lossy and one-directional: an already-downgraded config passes
// through unchanged and is never promoted back.
func (b *Builder) Downgrade(cfg schemas.ReplayConfig) schemas.ReplayConfig {
	if cfg.Downgraded || !strings.HasPrefix(cfg.JA3, "772,") {
		return cfg
	}

	cfg.JA3 = "771," + strings.TrimPrefix(cfg.JA3, "772,")
	cfg.MinVersion = "1.2"
	cfg.Downgraded = true
	b.logger.Info("Replay config downgraded to TLS 1.2 impersonation",
		zap.String("ja3_version", "771"))
	return cfg
}
