// File: internal/fingerprint/fallback.go
// Description: The canonical fallback profile used whenever live
// acquisition fails. It models a reference Chrome release and is
// internally consistent: the JA3/Akamai constants below are exactly
// what the deriver produces from the profile's own field lists, which
// the package tests pin.

package fingerprint

import (
	"github.com/xkilldash9x/fpcrawl/api/schemas"
)

const (
	// FallbackDeviceName identifies the reference browser release the
	// fallback profile models.
	FallbackDeviceName = "Chrome 136 (fallback)"

	// FallbackJA3Text is the JA3 string derived from the fallback
	// profile's cipher, extension and group lists.
	FallbackJA3Text = "772,4865-4866-4867-49195-49199-49196-49200-52393-52392-49191-49171-49192-49172-156-157-47-53,0-10-11-13-16-18-22-23-27-35-43-45-51-13172-17513-65281,29-23-24,0"

	// FallbackJA3Hash is the MD5 of FallbackJA3Text.
	FallbackJA3Hash = "0bdff42fb9e0dcb84049176beeb141df"

	// FallbackAkamaiText is the HTTP/2 fingerprint derived from the
	// fallback profile's SETTINGS values.
	FallbackAkamaiText = "1:65536;2:0;3:1000;4:6291456;5:16384;6:262144|15663105|0|m,a,s,p"
)

// FallbackProfile returns a fresh copy of the canonical fallback
// fingerprint. Callers receive their own instance and may mutate it
// freely.
func FallbackProfile() *schemas.Fingerprint {
	return &schemas.Fingerprint{
		TLSVersion: schemas.TLS13,
		CipherSuites: []schemas.CipherSuite{
			{ID: 4865, Name: "TLS_AES_128_GCM_SHA256"},
			{ID: 4866, Name: "TLS_AES_256_GCM_SHA384"},
			{ID: 4867, Name: "TLS_CHACHA20_POLY1305_SHA256"},
			{ID: 49195, Name: "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256"},
			{ID: 49199, Name: "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256"},
			{ID: 49196, Name: "TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384"},
			{ID: 49200, Name: "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384"},
			{ID: 52393, Name: "TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256"},
			{ID: 52392, Name: "TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256"},
			{ID: 49191, Name: "TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA"},
			{ID: 49171, Name: "TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA"},
			{ID: 49192, Name: "TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA"},
			{ID: 49172, Name: "TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA"},
			{ID: 156, Name: "TLS_RSA_WITH_AES_128_GCM_SHA256"},
			{ID: 157, Name: "TLS_RSA_WITH_AES_256_GCM_SHA384"},
			{ID: 47, Name: "TLS_RSA_WITH_AES_128_CBC_SHA"},
			{ID: 53, Name: "TLS_RSA_WITH_AES_256_CBC_SHA"},
		},
		Extensions: []schemas.Extension{
			{ID: 0, Name: "server_name"},
			{ID: 10, Name: "supported_groups"},
			{ID: 11, Name: "ec_point_formats"},
			{ID: 13, Name: "signature_algorithms"},
			{ID: 16, Name: "application_layer_protocol_negotiation"},
			{ID: 18, Name: "signed_certificate_timestamp"},
			{ID: 22, Name: "encrypt_then_mac"},
			{ID: 23, Name: "extended_master_secret"},
			{ID: 27, Name: "compress_certificate"},
			{ID: 35, Name: "session_ticket"},
			{ID: 43, Name: "supported_versions"},
			{ID: 45, Name: "psk_key_exchange_modes"},
			{ID: 51, Name: "key_share"},
			{ID: 13172, Name: "next_protocol_negotiation"},
			{ID: 17513, Name: "application_settings"},
			{ID: 65281, Name: "renegotiation_info"},
		},
		SupportedGroups: []string{"X25519", "secp256r1", "secp384r1"},
		SignatureAlgorithms: []string{
			"ecdsa_secp256r1_sha256",
			"rsa_pss_rsae_sha256",
			"rsa_pkcs1_sha256",
			"ecdsa_secp384r1_sha384",
			"rsa_pss_rsae_sha384",
			"rsa_pkcs1_sha384",
			"rsa_pss_rsae_sha512",
			"rsa_pkcs1_sha512",
		},
		JA3Text: FallbackJA3Text,
		JA3Hash: FallbackJA3Hash,
		HTTP2Settings: map[string]uint32{
			"SETTINGS_HEADER_TABLE_SIZE":      65536,
			"SETTINGS_ENABLE_PUSH":            0,
			"SETTINGS_MAX_CONCURRENT_STREAMS": 1000,
			"SETTINGS_INITIAL_WINDOW_SIZE":    6291456,
			"SETTINGS_MAX_FRAME_SIZE":         16384,
			"SETTINGS_MAX_HEADER_LIST_SIZE":   262144,
		},
		AkamaiText:        FallbackAkamaiText,
		AkamaiFingerprint: FallbackAkamaiText,
		Source:            schemas.SourceFallback,
	}
}
