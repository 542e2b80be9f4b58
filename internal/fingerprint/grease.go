// File: internal/fingerprint/grease.go
package fingerprint

import "strings"

// greaseMarker is the substring the oracle uses to label reserved
// placeholder entries in cipher, extension and group lists.
const greaseMarker = "GREASE"

// IsGreaseName reports whether a cipher/extension/group name denotes a
// GREASE placeholder. GREASE entries are random per-handshake and must
// never reach a derived fingerprint string.
func IsGreaseName(name string) bool {
	return strings.Contains(name, greaseMarker)
}

// IsGreaseID reports whether a TLS identifier matches the RFC 8701
// GREASE pattern (0x0a0a, 0x1a1a, ..., 0xfafa). Used as a belt-and-
// braces check for oracles that do not label GREASE entries by name.
func IsGreaseID(id uint16) bool {
	return id&0x0f0f == 0x0a0a
}
