// File: api/schemas/fingerprint.go
package schemas

import (
	"encoding/json"
	"time"
)

// TLSVersion is the negotiated protocol version reported by the
// fingerprint oracle. Only 1.2 and 1.3 appear in practice; anything
// else is treated as 1.2 when a JA3 string has to be synthesized.
type TLSVersion string

const (
	TLS12 TLSVersion = "TLS 1.2"
	TLS13 TLSVersion = "TLS 1.3"
)

// FingerprintSource records whether a fingerprint came from a live oracle
// probe or from the built-in fallback profile.
type FingerprintSource string

const (
	SourceLive     FingerprintSource = "live"
	SourceFallback FingerprintSource = "fallback"
)

// CipherSuite is a single entry from the ClientHello cipher list.
// Order within Fingerprint.CipherSuites is significant: it feeds the
// JA3 derivation byte for byte.
type CipherSuite struct {
	ID   uint16 `json:"id"`
	Name string `json:"name"`
}

// Extension is a single ClientHello extension. Data carries the oracle's
// structured payload (named groups, algorithms, ...) without interpreting
// it beyond the fields the derivations need.
type Extension struct {
	ID   uint16          `json:"id"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Fingerprint is the typed representation of one browser's network
// identity: the TLS ClientHello shape plus the HTTP/2 SETTINGS frame,
// together with the identifiers derived from them.
//
// Invariant: when JA3Text or AkamaiText are empty they must be
// re-derivable from the remaining fields (see internal/fingerprint);
// when the oracle supplied them they are authoritative and reused
// verbatim. GREASE entries never appear in derived strings.
type Fingerprint struct {
	TLSVersion   TLSVersion    `json:"tls_version"`
	CipherSuites []CipherSuite `json:"cipher_suites"`
	Extensions   []Extension   `json:"extensions"`

	// SupportedGroups and SignatureAlgorithms are scanned out of the
	// matching extensions at acquisition time so consumers do not have
	// to walk Extensions themselves.
	SupportedGroups     []string `json:"supported_groups"`
	SignatureAlgorithms []string `json:"signature_algorithms"`

	JA3Hash string `json:"ja3_hash"`
	JA3Text string `json:"ja3_text,omitempty"`

	// HTTP2Settings maps canonical SETTINGS names
	// (SETTINGS_HEADER_TABLE_SIZE, ...) to their values, GREASE excluded.
	HTTP2Settings map[string]uint32 `json:"http2_settings"`

	AkamaiFingerprint string `json:"akamai_fingerprint"`
	AkamaiText        string `json:"akamai_text,omitempty"`

	Source FingerprintSource `json:"source"`
}

// FingerprintMeta describes the collection context of a fingerprint or
// cookie row. It travels alongside the payload into storage.
type FingerprintMeta struct {
	DeviceName  string    `json:"device_name"`
	Browser     string    `json:"browser"`
	BrowserVer  string    `json:"browser_version"`
	OSVersion   string    `json:"os_version"`
	CollectedAt time.Time `json:"collected_at"`
}

// ReplayConfig is everything the impersonating HTTP client needs to
// reproduce a stored fingerprint. It is produced by the replay builder
// and consumed by the replay transport.
type ReplayConfig struct {
	// JA3 is the full fingerprint string
	// "version,ciphers,extensions,groups,point-formats".
	JA3 string `json:"ja3"`

	// MinVersion is "1.2" or "1.3".
	MinVersion string `json:"min_version"`

	// EnableGrease and PermuteExtensions default to true: modern Chrome
	// randomizes both, and replaying without them is itself a signal.
	EnableGrease      bool `json:"enable_grease"`
	PermuteExtensions bool `json:"permute_extensions"`

	// CertCompression is the advertised certificate compression
	// algorithm ("brotli" for every profile we replay).
	CertCompression string `json:"cert_compression"`

	// SignatureAlgorithms is advisory; the transport forwards it when
	// the underlying TLS stack accepts a custom list.
	SignatureAlgorithms []string `json:"signature_algorithms,omitempty"`

	// Downgraded is set when the JA3 version field was rewritten from
	// 772 to 771 for a TLS 1.2 only replay client. The transform is
	// one-directional; a downgraded config is never promoted back.
	Downgraded bool `json:"downgraded"`
}
