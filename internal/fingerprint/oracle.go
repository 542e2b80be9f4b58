// File: internal/fingerprint/oracle.go
// Description: Parsing of the fingerprint oracle's JSON blob into a
// Fingerprint. The blob is duck-typed upstream; here every expected
// shape is an explicit struct and anything that fails validation is an
// error the acquirer converts into a fallback, never a crash.

package fingerprint

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// oracleResponse mirrors the top level of the oracle page's JSON blob.
type oracleResponse struct {
	TLS        oracleTLS     `json:"tls"`
	HTTP2      []oracleFrame `json:"http2"`
	JA3Hash    string        `json:"ja3_hash"`
	JA3Text    string        `json:"ja3_text"`
	AkamaiHash string        `json:"akamai_hash"`
	AkamaiText string        `json:"akamai_text"`
}

type oracleTLS struct {
	ConnectionVersion oracleNamed           `json:"connection_version"`
	CipherSuites      []schemas.CipherSuite `json:"cipher_suites"`
	Extensions        []schemas.Extension   `json:"extensions"`
}

type oracleNamed struct {
	Name string `json:"name"`
}

// oracleFrame is one entry of the parallel HTTP/2 frame list. Only
// SETTINGS frames carry data we keep.
type oracleFrame struct {
	Name     string          `json:"name"`
	Settings []oracleSetting `json:"settings"`
}

type oracleSetting struct {
	Name  string `json:"name"`
	Value uint32 `json:"value"`
}

// Payload shapes for the two extensions whose contents the model
// flattens into top-level lists.
type namedGroupsData struct {
	NamedGroups []oracleNamed `json:"named_groups"`
}

type algorithmsData struct {
	Algorithms []oracleNamed `json:"algorithms"`
}

// ParseOracle converts the oracle blob into a Fingerprint tagged as a
// live capture. It returns an error for any blob missing the required
// sub-structures; deciding what to do about that error is the
// acquirer's job.
func ParseOracle(blob []byte) (*schemas.Fingerprint, error) {
	var resp oracleResponse
	if err := json.Unmarshal(blob, &resp); err != nil {
		return nil, fmt.Errorf("oracle blob is not valid JSON: %w", err)
	}

	if len(resp.TLS.CipherSuites) == 0 {
		return nil, fmt.Errorf("oracle blob has no cipher suites")
	}
	if len(resp.TLS.Extensions) == 0 {
		return nil, fmt.Errorf("oracle blob has no extensions")
	}

	version := schemas.TLSVersion(resp.TLS.ConnectionVersion.Name)
	if !strings.Contains(string(version), "1.2") && !strings.Contains(string(version), "1.3") {
		version = schemas.TLS13
	}

	fp := &schemas.Fingerprint{
		TLSVersion:          version,
		CipherSuites:        resp.TLS.CipherSuites,
		Extensions:          resp.TLS.Extensions,
		SupportedGroups:     scanNamedList(resp.TLS.Extensions, "supported_groups"),
		SignatureAlgorithms: scanNamedList(resp.TLS.Extensions, "signature_algorithms"),
		JA3Hash:             resp.JA3Hash,
		JA3Text:             resp.JA3Text,
		HTTP2Settings:       scanSettings(resp.HTTP2),
		AkamaiFingerprint:   resp.AkamaiHash,
		AkamaiText:          resp.AkamaiText,
		Source:              schemas.SourceLive,
	}
	return fp, nil
}

// scanNamedList pulls the name list out of the first extension matching
// extName. The two known payload shapes (named_groups, algorithms) are
// tried in order; an unrecognized payload yields an empty list rather
// than an error, because JA3 synthesis tolerates missing groups.
func scanNamedList(exts []schemas.Extension, extName string) []string {
	for _, ext := range exts {
		if ext.Name != extName || len(ext.Data) == 0 {
			continue
		}

		var groups namedGroupsData
		if err := json.Unmarshal(ext.Data, &groups); err == nil && len(groups.NamedGroups) > 0 {
			return namesOf(groups.NamedGroups)
		}

		var algs algorithmsData
		if err := json.Unmarshal(ext.Data, &algs); err == nil && len(algs.Algorithms) > 0 {
			return namesOf(algs.Algorithms)
		}
		break
	}
	return nil
}

func namesOf(entries []oracleNamed) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

// scanSettings extracts the first SETTINGS frame from the HTTP/2 frame
// list, dropping GREASE-reserved entries.
func scanSettings(frames []oracleFrame) map[string]uint32 {
	for _, frame := range frames {
		if frame.Name != "SETTINGS" {
			continue
		}
		settings := make(map[string]uint32, len(frame.Settings))
		for _, s := range frame.Settings {
			if s.Name == "" || strings.HasPrefix(s.Name, greaseMarker) {
				continue
			}
			settings[s.Name] = s.Value
		}
		return settings
	}
	return nil
}
