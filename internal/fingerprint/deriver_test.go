// File: internal/fingerprint/deriver_test.go
package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
)

func baseFingerprint() *schemas.Fingerprint {
	return &schemas.Fingerprint{
		TLSVersion: schemas.TLS13,
		CipherSuites: []schemas.CipherSuite{
			{ID: 4865, Name: "TLS_AES_128_GCM_SHA256"},
			{ID: 4866, Name: "TLS_AES_256_GCM_SHA384"},
		},
		Extensions: []schemas.Extension{
			{ID: 0, Name: "server_name"},
			{ID: 10, Name: "supported_groups"},
			{ID: 51, Name: "key_share"},
		},
		SupportedGroups: []string{"X25519", "secp256r1"},
		HTTP2Settings: map[string]uint32{
			"SETTINGS_HEADER_TABLE_SIZE":   65536,
			"SETTINGS_INITIAL_WINDOW_SIZE": 6291456,
		},
	}
}

func TestJA3TextSynthesis(t *testing.T) {
	d := NewDeriver(nil)

	got := d.JA3Text(baseFingerprint())
	assert.Equal(t, "772,4865-4866,0-10-51,29-23,0", got)
}

func TestJA3TextPrefersVerbatim(t *testing.T) {
	d := NewDeriver(nil)
	fp := baseFingerprint()
	fp.JA3Text = "771,1-2-3,4-5,29,0"

	// The authoritative string wins even when the field lists disagree.
	assert.Equal(t, "771,1-2-3,4-5,29,0", d.JA3Text(fp))
}

func TestJA3TextFiltersGrease(t *testing.T) {
	d := NewDeriver(nil)
	fp := baseFingerprint()
	fp.CipherSuites = append([]schemas.CipherSuite{{ID: 0x3a3a, Name: "TLS_GREASE (0x3a3a)"}}, fp.CipherSuites...)
	fp.Extensions = append(fp.Extensions, schemas.Extension{ID: 0xcaca, Name: "TLS_GREASE (0xcaca)"})
	fp.SupportedGroups = append([]string{"TLS_GREASE (0x6a6a)"}, fp.SupportedGroups...)

	assert.Equal(t, "772,4865-4866,0-10-51,29-23,0", d.JA3Text(fp))
}

func TestJA3TextFiltersGreaseByIDWithoutLabel(t *testing.T) {
	d := NewDeriver(nil)
	fp := baseFingerprint()
	// Unlabeled GREASE entry, only recognizable by the ID pattern.
	fp.Extensions = append(fp.Extensions, schemas.Extension{ID: 0x1a1a, Name: "unknown"})

	assert.Equal(t, "772,4865-4866,0-10-51,29-23,0", d.JA3Text(fp))
}

func TestJA3TextDropsUnknownGroups(t *testing.T) {
	d := NewDeriver(nil)
	fp := baseFingerprint()
	fp.SupportedGroups = []string{"X25519", "ffdhe2048", "secp384r1"}

	assert.Equal(t, "772,4865-4866,0-10-51,29-24,0", d.JA3Text(fp))
}

func TestJA3TextDeterministic(t *testing.T) {
	d := NewDeriver(nil)
	fp := baseFingerprint()

	first := d.JA3Text(fp)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.JA3Text(fp))
	}
}

func TestJA3HashLowercaseHex(t *testing.T) {
	// Reference value computed independently.
	assert.Equal(t, "9e107d9d372bb6826bd81d3542a419d6", JA3Hash("The quick brown fox jumps over the lazy dog"))
}

func TestJA3ReturnsMatchingPair(t *testing.T) {
	d := NewDeriver(nil)
	text, hash := d.JA3(baseFingerprint())
	require.NotEmpty(t, text)
	assert.Equal(t, JA3Hash(text), hash)
}

func TestVersionCode(t *testing.T) {
	tests := []struct {
		version schemas.TLSVersion
		want    string
	}{
		{schemas.TLS13, "772"},
		{schemas.TLS12, "771"},
		{schemas.TLSVersion("SSL 3.0"), "771"},
		{schemas.TLSVersion(""), "771"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, versionCode(tt.version), "version %q", tt.version)
	}
}

func TestAkamaiSynthesis(t *testing.T) {
	d := NewDeriver(nil)
	fp := baseFingerprint()

	assert.Equal(t, "1:65536;4:6291456|15663105|0|m,a,s,p", d.Akamai(fp))
}

func TestAkamaiPrefersVerbatim(t *testing.T) {
	d := NewDeriver(nil)
	fp := baseFingerprint()
	fp.AkamaiText = "1:1;2:0|100|0|m,p,a,s"

	assert.Equal(t, "1:1;2:0|100|0|m,p,a,s", d.Akamai(fp))
}

func TestAkamaiOmitsMissingSettings(t *testing.T) {
	d := NewDeriver(nil)
	fp := baseFingerprint()
	fp.HTTP2Settings = nil

	assert.Equal(t, "|15663105|0|m,a,s,p", d.Akamai(fp))
}

func TestCustomCurveTable(t *testing.T) {
	d := NewDeriver(map[string]uint16{"X25519": 999})
	fp := baseFingerprint()

	assert.Equal(t, "772,4865-4866,0-10-51,999,0", d.JA3Text(fp))
}
