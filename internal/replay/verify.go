// File: internal/replay/verify.go
// Description: Pre-flight drift check. Before the first crawl page the
// replay client probes the same oracle the collection phase used; the
// resulting live fingerprint is diffed against the stored one so that
// an impersonation gap shows up in the logs before it shows up as a
// block page.

package replay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/fingerprint"
)

// VerifyResult summarizes one drift check. Blob carries the raw oracle
// response so callers can archive it alongside the run artifacts.
type VerifyResult struct {
	Match       bool
	Differences []string
	Live        *schemas.Fingerprint
	Blob        []byte
}

// oracleAPIPath is appended to the oracle base URL to get the JSON
// endpoint directly instead of the HTML page the browser phase scrapes.
const oracleAPIPath = "json"

// Verify probes the oracle through the replay client and diffs the live
// fingerprint against the stored one. A transport failure is an error;
// a mismatch is not, it is the finding.
func Verify(ctx context.Context, client schemas.ReplayClient, oracleURL string, stored *schemas.Fingerprint, timeout time.Duration, logger *zap.Logger) (*VerifyResult, error) {
	log := logger.Named("tls-verify")

	url := strings.TrimSuffix(oracleURL, "/") + "/" + oracleAPIPath
	resp, err := client.Get(ctx, url, map[string]string{
		"accept":          "application/json",
		"accept-encoding": "gzip, deflate, br, zstd",
	}, timeout)
	if err != nil {
		return nil, fmt.Errorf("verify: oracle probe failed: %w", err)
	}
	if resp.Status != 200 {
		return nil, fmt.Errorf("verify: oracle returned status %d", resp.Status)
	}

	live, err := fingerprint.ParseOracle(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("verify: oracle response unparseable: %w", err)
	}

	result := &VerifyResult{
		Differences: diffFingerprints(stored, live),
		Live:        live,
		Blob:        resp.Body,
	}
	result.Match = len(result.Differences) == 0

	if result.Match {
		log.Info("Replay fingerprint matches stored identity",
			zap.String("ja3_hash", live.JA3Hash))
	} else {
		log.Warn("Replay fingerprint drifts from stored identity",
			zap.Strings("differences", result.Differences))
	}
	return result, nil
}

// diffFingerprints reports the stored-vs-live deltas the replay layer
// cares about. GREASE noise is already gone from both sides, so exact
// list comparison is meaningful.
func diffFingerprints(stored, live *schemas.Fingerprint) []string {
	var diffs []string
	if stored == nil {
		return []string{"no stored fingerprint to compare against"}
	}

	if stored.JA3Hash != live.JA3Hash {
		diffs = append(diffs, fmt.Sprintf("ja3_hash: stored %s, live %s", stored.JA3Hash, live.JA3Hash))
	}
	if stored.TLSVersion != live.TLSVersion {
		diffs = append(diffs, fmt.Sprintf("tls_version: stored %q, live %q", stored.TLSVersion, live.TLSVersion))
	}
	if d := diffNameList("cipher_suites", cipherNames(stored.CipherSuites), cipherNames(live.CipherSuites)); d != "" {
		diffs = append(diffs, d)
	}
	if d := diffNameList("supported_groups", stored.SupportedGroups, live.SupportedGroups); d != "" {
		diffs = append(diffs, d)
	}
	if d := diffNameList("signature_algorithms", stored.SignatureAlgorithms, live.SignatureAlgorithms); d != "" {
		diffs = append(diffs, d)
	}
	return diffs
}

// diffNameList compares two ordered name lists, ignoring GREASE
// entries, and describes the first divergence.
func diffNameList(field string, stored, live []string) string {
	a := withoutGrease(stored)
	b := withoutGrease(live)
	if len(a) != len(b) {
		return fmt.Sprintf("%s: stored has %d entries, live has %d", field, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			return fmt.Sprintf("%s[%d]: stored %q, live %q", field, i, a[i], b[i])
		}
	}
	return ""
}

func withoutGrease(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if fingerprint.IsGreaseName(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func cipherNames(suites []schemas.CipherSuite) []string {
	out := make([]string, 0, len(suites))
	for _, cs := range suites {
		if fingerprint.IsGreaseID(cs.ID) {
			continue
		}
		out = append(out, cs.Name)
	}
	return out
}
