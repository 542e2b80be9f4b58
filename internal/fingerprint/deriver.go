// File: internal/fingerprint/deriver.go
// Description: Derivation of the JA3 and Akamai fingerprint strings
// from a stored Fingerprint. Both derivations are deterministic and
// GREASE-free; when the oracle already supplied the authoritative text,
// it is reused verbatim and the derivation acts only as a fallback.

package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
)

// ja3PointFormats is the EC point-formats field of every JA3 string we
// emit. Browsers advertise only the uncompressed format.
const ja3PointFormats = "0"

// Canonical Akamai tokens for the Chrome profile family: the
// connection-level WINDOW_UPDATE increment, the priority-frame marker
// (0 = none sent) and the pseudo-header order
// (:method, :authority, :scheme, :path).
const (
	akamaiWindowToken      = "15663105"
	akamaiPriorityToken    = "0"
	akamaiHeaderOrderToken = "m,a,s,p"
)

// akamaiSettingOrder lists the six canonical SETTINGS parameters in
// wire-identifier order. Settings the fingerprint does not carry are
// simply omitted from the string.
var akamaiSettingOrder = []struct {
	id   int
	name string
}{
	{1, "SETTINGS_HEADER_TABLE_SIZE"},
	{2, "SETTINGS_ENABLE_PUSH"},
	{3, "SETTINGS_MAX_CONCURRENT_STREAMS"},
	{4, "SETTINGS_INITIAL_WINDOW_SIZE"},
	{5, "SETTINGS_MAX_FRAME_SIZE"},
	{6, "SETTINGS_MAX_HEADER_LIST_SIZE"},
}

// DefaultCurveTable maps supported-group names to their TLS identifiers
// for JA3 synthesis. Groups without a mapping are dropped from the
// string rather than guessed.
func DefaultCurveTable() map[string]uint16 {
	return map[string]uint16{
		"X25519":                29,
		"x25519":                29,
		"secp256r1":             23,
		"prime256v1":            23,
		"secp384r1":             24,
		"secp521r1":             25,
		"X25519Kyber768Draft00": 25497,
		"X25519MLKEM768":        4588,
	}
}

// Deriver turns a Fingerprint into its derived identifier strings. The
// curve table is injected so tests can substitute alternate mappings.
type Deriver struct {
	curves map[string]uint16
}

// NewDeriver builds a Deriver; a nil table selects DefaultCurveTable.
func NewDeriver(curves map[string]uint16) *Deriver {
	if curves == nil {
		curves = DefaultCurveTable()
	}
	return &Deriver{curves: curves}
}

// JA3Text returns the fingerprint's JA3 string. A non-empty
// fp.JA3Text is authoritative (it preserves the exact extension
// permutation the browser sent); otherwise the string is rebuilt as
// "version,ciphers,extensions,groups,point-formats" with GREASE
// entries removed.
func (d *Deriver) JA3Text(fp *schemas.Fingerprint) string {
	if fp.JA3Text != "" {
		return fp.JA3Text
	}

	ciphers := make([]string, 0, len(fp.CipherSuites))
	for _, cs := range fp.CipherSuites {
		if IsGreaseName(cs.Name) || IsGreaseID(cs.ID) {
			continue
		}
		ciphers = append(ciphers, strconv.Itoa(int(cs.ID)))
	}

	exts := make([]string, 0, len(fp.Extensions))
	for _, ext := range fp.Extensions {
		if IsGreaseName(ext.Name) || IsGreaseID(ext.ID) {
			continue
		}
		exts = append(exts, strconv.Itoa(int(ext.ID)))
	}

	groups := make([]string, 0, len(fp.SupportedGroups))
	for _, g := range fp.SupportedGroups {
		if IsGreaseName(g) {
			continue
		}
		id, ok := d.curves[g]
		if !ok {
			// Unknown group names are dropped, not invented.
			continue
		}
		groups = append(groups, strconv.Itoa(int(id)))
	}

	return strings.Join([]string{
		versionCode(fp.TLSVersion),
		strings.Join(ciphers, "-"),
		strings.Join(exts, "-"),
		strings.Join(groups, "-"),
		ja3PointFormats,
	}, ",")
}

// JA3 returns the JA3 text together with its lowercase hex MD5 digest.
func (d *Deriver) JA3(fp *schemas.Fingerprint) (text, hash string) {
	text = d.JA3Text(fp)
	return text, JA3Hash(text)
}

// JA3Hash hashes an already-built JA3 string.
func JA3Hash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Akamai returns the HTTP/2 fingerprint string
// "id:value;...|window|priority|header-order". A non-empty
// fp.AkamaiText is reproduced verbatim; otherwise the SETTINGS portion
// is rebuilt from fp.HTTP2Settings and the canonical Chrome tokens are
// appended.
func (d *Deriver) Akamai(fp *schemas.Fingerprint) string {
	if fp.AkamaiText != "" {
		return fp.AkamaiText
	}

	parts := make([]string, 0, len(akamaiSettingOrder))
	for _, s := range akamaiSettingOrder {
		if v, ok := fp.HTTP2Settings[s.name]; ok {
			parts = append(parts, fmt.Sprintf("%d:%d", s.id, v))
		}
	}

	return strings.Join(parts, ";") + "|" +
		akamaiWindowToken + "|" +
		akamaiPriorityToken + "|" +
		akamaiHeaderOrderToken
}

// versionCode maps the model's TLS version to the decimal code JA3
// uses. Unknown versions degrade to TLS 1.2, matching the upstream
// acquisition behavior.
func versionCode(v schemas.TLSVersion) string {
	if strings.Contains(string(v), "1.3") {
		return "772"
	}
	return "771"
}
