// File: internal/store/store.go
// Description: PostgreSQL persistence for fingerprints and cookie sets.
// Two tables: tls_fingerprints holds one row per collected identity,
// cookies holds the evolving cookie sets referencing it. The newest
// fingerprint plus its newest cookie row form the identity the crawl
// phase loads.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
)

// ErrNoIdentity is returned by LoadLatest when the database holds no
// complete identity yet (no fingerprint, or a fingerprint without any
// cookie row).
var ErrNoIdentity = errors.New("store: no stored identity")

// DBPool abstracts pgxpool.Pool so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements schemas.Repository on Postgres.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.Repository = (*Store)(nil)

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	return &Store{pool: pool, log: logger.Named("store")}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tls_fingerprints (
    id                 BIGSERIAL PRIMARY KEY,
    device_name        TEXT        NOT NULL,
    browser            TEXT        NOT NULL,
    os_version         TEXT        NOT NULL,
    tls_data           JSONB       NOT NULL,
    http2_data         JSONB       NOT NULL,
    ja3_hash           TEXT        NOT NULL,
    akamai_fingerprint TEXT        NOT NULL,
    collected_at       TIMESTAMPTZ NOT NULL,
    cipher_count       INT         NOT NULL,
    extension_count    INT         NOT NULL
);
CREATE TABLE IF NOT EXISTS cookies (
    id                 BIGSERIAL PRIMARY KEY,
    device_name        TEXT        NOT NULL,
    browser            TEXT        NOT NULL,
    os_version         TEXT        NOT NULL,
    tls_fingerprint_id BIGINT      NOT NULL REFERENCES tls_fingerprints(id) ON DELETE CASCADE,
    cookie_type        TEXT        NOT NULL,
    cookie_data        JSONB       NOT NULL,
    collected_at       TIMESTAMPTZ NOT NULL,
    is_valid           BOOLEAN     NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_fingerprints_collected_at ON tls_fingerprints (collected_at DESC);
CREATE INDEX IF NOT EXISTS idx_cookies_fingerprint ON cookies (tls_fingerprint_id, collected_at DESC);
`

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// http2Payload is the shape stored in the http2_data column, kept
// separate from tls_data so the two halves of the fingerprint can be
// inspected independently with plain SQL.
type http2Payload struct {
	Settings          map[string]uint32 `json:"settings"`
	AkamaiFingerprint string            `json:"akamai_fingerprint"`
	AkamaiText        string            `json:"akamai_text,omitempty"`
}

const insertFingerprintSQL = `
INSERT INTO tls_fingerprints (
    device_name, browser, os_version,
    tls_data, http2_data,
    ja3_hash, akamai_fingerprint,
    collected_at, cipher_count, extension_count
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`

// SaveFingerprint inserts one fingerprint row and returns its id.
func (s *Store) SaveFingerprint(ctx context.Context, fp *schemas.Fingerprint, meta schemas.FingerprintMeta) (int64, error) {
	tlsData, err := json.Marshal(fp)
	if err != nil {
		return 0, fmt.Errorf("store: marshal tls data: %w", err)
	}
	http2Data, err := json.Marshal(http2Payload{
		Settings:          fp.HTTP2Settings,
		AkamaiFingerprint: fp.AkamaiFingerprint,
		AkamaiText:        fp.AkamaiText,
	})
	if err != nil {
		return 0, fmt.Errorf("store: marshal http2 data: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, insertFingerprintSQL,
		meta.DeviceName, meta.Browser, meta.OSVersion,
		tlsData, http2Data,
		fp.JA3Hash, fp.AkamaiFingerprint,
		meta.CollectedAt.UTC(), len(fp.CipherSuites), len(fp.Extensions),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert fingerprint: %w", err)
	}

	s.log.Info("Fingerprint persisted",
		zap.Int64("id", id),
		zap.String("device", meta.DeviceName),
		zap.String("ja3_hash", fp.JA3Hash),
		zap.String("source", string(fp.Source)))
	return id, nil
}

const insertCookiesSQL = `
INSERT INTO cookies (
    device_name, browser, os_version,
    tls_fingerprint_id, cookie_type, cookie_data,
    collected_at, is_valid
) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
RETURNING id`

// SaveCookies inserts one cookie set referencing an existing
// fingerprint row.
func (s *Store) SaveCookies(ctx context.Context, records []schemas.CookieRecord, meta schemas.FingerprintMeta, fingerprintID int64, provenance schemas.CookieProvenance) (int64, error) {
	cookieData, err := json.Marshal(records)
	if err != nil {
		return 0, fmt.Errorf("store: marshal cookies: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, insertCookiesSQL,
		meta.DeviceName, meta.Browser, meta.OSVersion,
		fingerprintID, string(provenance), cookieData,
		meta.CollectedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert cookies: %w", err)
	}

	s.log.Info("Cookie set persisted",
		zap.Int64("id", id),
		zap.Int64("fingerprint_id", fingerprintID),
		zap.String("provenance", string(provenance)),
		zap.Int("count", len(records)))
	return id, nil
}

const latestFingerprintSQL = `
SELECT id, device_name, browser, os_version, tls_data, collected_at
FROM tls_fingerprints
ORDER BY collected_at DESC
LIMIT 1`

const latestCookiesSQL = `
SELECT cookie_data
FROM cookies
WHERE tls_fingerprint_id = $1 AND is_valid
ORDER BY collected_at DESC
LIMIT 1`

// LoadLatest returns the most recent fingerprint together with the
// newest cookie set referencing it.
func (s *Store) LoadLatest(ctx context.Context) (*schemas.StoredIdentity, error) {
	var (
		id          int64
		meta        schemas.FingerprintMeta
		tlsData     []byte
		collectedAt time.Time
	)
	err := s.pool.QueryRow(ctx, latestFingerprintSQL).Scan(
		&id, &meta.DeviceName, &meta.Browser, &meta.OSVersion, &tlsData, &collectedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("store: load fingerprint: %w", err)
	}
	meta.BrowserVer = crawlBrowserVersion(meta.DeviceName)
	meta.CollectedAt = collectedAt

	var fp schemas.Fingerprint
	if err := json.Unmarshal(tlsData, &fp); err != nil {
		return nil, fmt.Errorf("store: unmarshal tls data: %w", err)
	}

	var cookieData []byte
	err = s.pool.QueryRow(ctx, latestCookiesSQL, id).Scan(&cookieData)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("store: load cookies: %w", err)
	}

	var records []schemas.CookieRecord
	if err := json.Unmarshal(cookieData, &records); err != nil {
		return nil, fmt.Errorf("store: unmarshal cookies: %w", err)
	}

	s.log.Info("Loaded stored identity",
		zap.Int64("fingerprint_id", id),
		zap.String("device", meta.DeviceName),
		zap.Time("collected_at", meta.CollectedAt),
		zap.Int("cookies", len(records)))

	return &schemas.StoredIdentity{
		FingerprintID: id,
		Meta:          meta,
		Fingerprint:   &fp,
		Cookies:       records,
	}, nil
}

// crawlBrowserVersion recovers the version token from a device name
// like "Chrome 136.0.7103.113".
func crawlBrowserVersion(deviceName string) string {
	var name, version string
	if _, err := fmt.Sscanf(deviceName, "%s %s", &name, &version); err != nil {
		return ""
	}
	return version
}
