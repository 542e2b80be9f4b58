// File: internal/crawler/orchestrator.go
// Description: The sequential crawl state machine. One run fetches up
// to MaxPages result pages through the replay client, classifies each
// response, and stops hard on the first block or transport failure.
// Pages are strictly ordered; there is no concurrency and no retry.

package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/config"
	"github.com/xkilldash9x/fpcrawl/internal/cookies"
	"github.com/xkilldash9x/fpcrawl/internal/replay"
)

// Orchestrator owns one crawl run end to end: page loop, artifact
// output, and the final cookie write-back.
type Orchestrator struct {
	cfg      *config.Config
	identity *schemas.StoredIdentity
	client   schemas.ReplayClient
	repo     schemas.Repository
	sink     schemas.ArtifactSink
	headers  *HeaderBuilder
	validate *Validator
	logger   *zap.Logger
	rng      *rand.Rand
	now      func() time.Time
}

// NewOrchestrator wires a run against an already-loaded identity and an
// already-built replay client. repo may be nil when the caller does not
// want the crawled cookies persisted.
func NewOrchestrator(cfg *config.Config, identity *schemas.StoredIdentity, client schemas.ReplayClient, repo schemas.Repository, sink schemas.ArtifactSink, logger *zap.Logger) *Orchestrator {
	chromeVersion := ChromeVersionOf(identity.Meta.DeviceName)
	return &Orchestrator{
		cfg:      cfg,
		identity: identity,
		client:   client,
		repo:     repo,
		sink:     sink,
		headers:  NewHeaderBuilder(chromeVersion, cfg.Target.Referer, cfg.Target.RSCPath),
		validate: NewValidator(cfg.Crawler),
		logger:   logger.Named("orchestrator"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// ChromeVersionOf extracts the version token from a stored device name
// like "Chrome 136.0.7103.113 (Windows)".
func ChromeVersionOf(deviceName string) string {
	fields := strings.Fields(deviceName)
	for i, f := range fields {
		if strings.EqualFold(f, "chrome") && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return "unknown"
}

// Run executes the crawl and returns the run summary. The summary is
// always produced and always written as an artifact, even on error;
// the error return reports a failed cookie write-back, never page
// failures (those live in the summary).
func (o *Orchestrator) Run(ctx context.Context, keyword string) (*schemas.RunSummary, error) {
	maxPages := o.cfg.Crawler.MaxPages
	chromeVersion := o.headers.chromeVersion

	summary := &schemas.RunSummary{
		RunID:         uuid.NewString(),
		Keyword:       keyword,
		MaxPages:      maxPages,
		ChromeVersion: chromeVersion,
		DeviceName:    o.identity.Meta.DeviceName,
	}

	o.logger.Info("Starting crawl run",
		zap.String("run_id", summary.RunID),
		zap.String("keyword", keyword),
		zap.Int("max_pages", maxPages),
		zap.String("device", o.identity.Meta.DeviceName),
		zap.String("ja3_hash", o.identity.Fingerprint.JA3Hash),
		zap.Int("cookies", len(o.identity.Cookies)))

	// Seed the session jar from the stored identity. The transport's
	// jar evolves from here; stored records are never mutated.
	o.client.SetCookies(o.identity.Cookies)

	if o.cfg.Replay.VerifyTLS {
		o.runPreflight(ctx)
	}

	traceID := NewTraceID(o.now())

	var prevPageURL string
	for page := 1; page <= maxPages; page++ {
		result, hardStop := o.fetchPage(ctx, keyword, page, traceID, prevPageURL, chromeVersion)
		summary.Results = append(summary.Results, result)
		prevPageURL = result.URL

		if hardStop {
			break
		}
		if page < maxPages {
			o.sleepBetweenPages(ctx)
		}
	}

	return summary, o.finalize(ctx, summary, chromeVersion)
}

// runPreflight probes the oracle through the replay transport and logs
// drift against the stored fingerprint. A preflight failure never
// aborts the run; its whole purpose is diagnostic context for what
// follows.
func (o *Orchestrator) runPreflight(ctx context.Context) {
	result, err := replay.Verify(ctx, o.client, o.cfg.Oracle.URL, o.identity.Fingerprint, o.cfg.Replay.Timeout, o.logger)
	if err != nil {
		o.logger.Warn("TLS pre-flight failed, continuing without verification", zap.Error(err))
		return
	}
	if ref, err := o.sink.SaveJSON(json.RawMessage(result.Blob), "tls.json"); err != nil {
		o.logger.Warn("Could not save pre-flight oracle blob", zap.Error(err))
	} else {
		o.logger.Debug("Saved pre-flight oracle blob", zap.String("file", ref))
	}
}

// fetchPage performs one page request and classification. The second
// return value reports a hard stop: a transport failure or a block
// page, either of which ends the run immediately.
func (o *Orchestrator) fetchPage(ctx context.Context, keyword string, page int, traceID, prevPageURL, chromeVersion string) (schemas.PageResult, bool) {
	url, err := BuildPageURL(o.cfg.Target.SearchURL, keyword, page, traceID, NewRSCParam(o.rng))
	if err != nil {
		return schemas.PageResult{PageNumber: page, Success: false, Error: err.Error()}, true
	}

	result := schemas.PageResult{PageNumber: page, URL: url}

	// The session jar carries the cookies; no Cookie header is built.
	headers := o.headers.ForPage(page, prevPageURL, "")

	start := o.now()
	resp, err := o.client.Get(ctx, url, headers, o.cfg.Replay.Timeout)
	if err != nil {
		o.logger.Error("Page request failed, stopping run",
			zap.Int("page", page), zap.Error(err))
		result.Error = err.Error()
		return result, true
	}
	result.ElapsedMs = time.Since(start).Milliseconds()
	result.HTTPStatus = resp.Status
	result.ByteSize = len(resp.Body)

	verdict := o.validate.Validate(resp.Body, page)
	result.Blocked = verdict.Blocked
	result.Success = verdict.HasContent && !verdict.Blocked

	result.SavedArtifactRef = o.savePageArtifact(resp.Body, page, chromeVersion, result.Success)

	o.logger.Info("Page fetched",
		zap.Int("page", page),
		zap.Int("status", resp.Status),
		zap.Int("bytes", result.ByteSize),
		zap.Int64("elapsed_ms", result.ElapsedMs),
		zap.String("protocol", resp.Protocol),
		zap.Bool("has_content", verdict.HasContent),
		zap.Bool("blocked", verdict.Blocked))

	if verdict.Blocked {
		o.logger.Warn("Block page detected, stopping run", zap.Int("page", page))
		return result, true
	}
	// A content miss without a block marker is recorded but does not
	// stop the run; the next page may still render.
	return result, false
}

func (o *Orchestrator) savePageArtifact(body []byte, page int, chromeVersion string, success bool) string {
	ext := "html"
	if page > 1 {
		ext = "rsc.txt"
	}
	if !success {
		ext = "failed." + ext
	}
	ref, err := o.sink.SavePage(body, page, chromeVersion, ext)
	if err != nil {
		o.logger.Warn("Could not save page artifact",
			zap.Int("page", page), zap.Error(err))
		return ""
	}
	return ref
}

// sleepBetweenPages waits a uniformly random interval between DelayMin
// and DelayMax, honoring context cancellation.
func (o *Orchestrator) sleepBetweenPages(ctx context.Context) {
	delay := o.cfg.Crawler.DelayMin
	if span := o.cfg.Crawler.DelayMax - o.cfg.Crawler.DelayMin; span > 0 {
		delay += time.Duration(o.rng.Int63n(int64(span)))
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

// finalize computes the run totals, persists the evolved cookie set
// under the crawled provenance, and writes the summary and jar
// artifacts. A failed cookie write-back is returned after the
// artifacts are written; the in-memory summary stays intact either
// way. Artifact write failures only warn, the crawl already happened.
func (o *Orchestrator) finalize(ctx context.Context, summary *schemas.RunSummary, chromeVersion string) error {
	for _, r := range summary.Results {
		if r.Success {
			summary.Totals.Successful++
		}
	}
	summary.Totals.Total = len(summary.Results)
	summary.Success = summary.Totals.Successful == summary.MaxPages

	finalCookies := o.client.Cookies()
	if len(finalCookies) == 0 {
		o.logger.Warn("Session jar is empty, keeping the stored cookie set")
		finalCookies = o.identity.Cookies
	} else {
		// Jar reads lose scope and flags; merging over the stored set
		// restores them for cookies the run did not touch.
		finalCookies = cookies.Merge(o.identity.Cookies, finalCookies)
	}

	var persistErr error
	if o.repo != nil {
		meta := o.identity.Meta
		meta.CollectedAt = o.now()
		if id, err := o.repo.SaveCookies(ctx, finalCookies, meta, o.identity.FingerprintID, schemas.ProvenanceCrawled); err != nil {
			o.logger.Error("Could not persist crawled cookies", zap.Error(err))
			persistErr = fmt.Errorf("crawler: persist crawled cookies: %w", err)
		} else {
			o.logger.Info("Crawled cookies persisted",
				zap.Int64("cookie_id", id), zap.Int("count", len(finalCookies)))
		}
	}

	major, _, _ := strings.Cut(chromeVersion, ".")
	if ref, err := o.sink.SaveCookieJar(finalCookies, fmt.Sprintf("cookies_chrome%s.txt", major)); err != nil {
		o.logger.Warn("Could not save cookie jar artifact", zap.Error(err))
	} else {
		o.logger.Debug("Saved cookie jar", zap.String("file", ref))
	}

	if ref, err := o.sink.SaveJSON(summary, fmt.Sprintf("results_chrome%s.json", major)); err != nil {
		o.logger.Warn("Could not save run summary artifact", zap.Error(err))
	} else {
		o.logger.Info("Run summary saved", zap.String("file", ref))
	}

	o.logger.Info("Crawl run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("total", summary.Totals.Total),
		zap.Int("successful", summary.Totals.Successful),
		zap.Bool("success", summary.Success))
	return persistErr
}
