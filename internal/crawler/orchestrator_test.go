// File: internal/crawler/orchestrator_test.go
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/config"
	"github.com/xkilldash9x/fpcrawl/internal/fingerprint"
)

// mockReplayClient scripts one response (or error) per request.
type mockReplayClient struct {
	responses []*schemas.ReplayResponse
	errs      []error
	calls     int
	requested []string
	seeded    []schemas.CookieRecord
	jar       []schemas.CookieRecord
}

func (m *mockReplayClient) Get(_ context.Context, url string, _ map[string]string, _ time.Duration) (*schemas.ReplayResponse, error) {
	i := m.calls
	m.calls++
	m.requested = append(m.requested, url)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		// Surfaces as a failed page result, which fails the assertion
		// on the expected call count.
		return nil, fmt.Errorf("unexpected request %d to %s", i, url)
	}
	return m.responses[i], nil
}

func (m *mockReplayClient) SetCookies(records []schemas.CookieRecord) { m.seeded = records }
func (m *mockReplayClient) Cookies() []schemas.CookieRecord          { return m.jar }

type mockRepo struct {
	savedRecords    []schemas.CookieRecord
	savedProvenance schemas.CookieProvenance
	savedFPID       int64
	saveErr         error
}

func (m *mockRepo) SaveFingerprint(_ context.Context, _ *schemas.Fingerprint, _ schemas.FingerprintMeta) (int64, error) {
	return 0, errors.New("not used in crawl phase")
}

func (m *mockRepo) SaveCookies(_ context.Context, records []schemas.CookieRecord, _ schemas.FingerprintMeta, fingerprintID int64, provenance schemas.CookieProvenance) (int64, error) {
	m.savedRecords = records
	m.savedProvenance = provenance
	m.savedFPID = fingerprintID
	return 42, m.saveErr
}

func (m *mockRepo) LoadLatest(_ context.Context) (*schemas.StoredIdentity, error) {
	return nil, errors.New("not used")
}

type mockSink struct {
	pages    []int
	exts     []string
	jsonKeys []string
	jarFile  string
	jarRecs  []schemas.CookieRecord
}

func (m *mockSink) SavePage(_ []byte, pageNumber int, _ string, ext string) (string, error) {
	m.pages = append(m.pages, pageNumber)
	m.exts = append(m.exts, ext)
	return "page.out", nil
}

func (m *mockSink) SaveJSON(_ any, filename string) (string, error) {
	m.jsonKeys = append(m.jsonKeys, filename)
	return filename, nil
}

func (m *mockSink) SaveCookieJar(records []schemas.CookieRecord, filename string) (string, error) {
	m.jarFile = filename
	m.jarRecs = records
	return filename, nil
}

func testIdentity() *schemas.StoredIdentity {
	return &schemas.StoredIdentity{
		FingerprintID: 7,
		Meta: schemas.FingerprintMeta{
			DeviceName: "Chrome 136.0.7103.113",
			Browser:    "chrome",
			OSVersion:  "Windows 10",
		},
		Fingerprint: fingerprint.FallbackProfile(),
		Cookies: []schemas.CookieRecord{
			{Name: "PCID", Value: "stored", Domain: ".example.com", Path: "/"},
		},
	}
}

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Crawler.MaxPages = 3
	cfg.Crawler.DelayMin = 0
	cfg.Crawler.DelayMax = 0
	cfg.Replay.VerifyTLS = false
	cfg.Replay.Timeout = time.Second
	return cfg
}

func htmlPage(marker string, size int) []byte {
	body := []byte("<html><body><div class=\"" + marker + "\">x</div></body></html>")
	return append(body, bytes.Repeat([]byte{' '}, size)...)
}

func rscPage(size int) []byte {
	return append([]byte(`1:["srp_item","search-product"]`), bytes.Repeat([]byte{' '}, size)...)
}

func TestRunAllPagesSucceed(t *testing.T) {
	client := &mockReplayClient{
		responses: []*schemas.ReplayResponse{
			{Status: 200, Body: htmlPage("product-list", 6000), Protocol: "HTTP/2.0"},
			{Status: 200, Body: rscPage(60000), Protocol: "HTTP/2.0"},
			{Status: 200, Body: rscPage(60000), Protocol: "HTTP/2.0"},
		},
		jar: []schemas.CookieRecord{{Name: "PCID", Value: "rotated"}, {Name: "sid", Value: "new"}},
	}
	repo := &mockRepo{}
	sink := &mockSink{}

	orch := NewOrchestrator(testConfig(), testIdentity(), client, repo, sink, zap.NewNop())
	summary, err := orch.Run(context.Background(), "노트북")
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Equal(t, 3, summary.Totals.Total)
	assert.Equal(t, 3, summary.Totals.Successful)
	assert.Equal(t, "136.0.7103.113", summary.ChromeVersion)
	require.Len(t, summary.Results, 3)
	for i, r := range summary.Results {
		assert.Equal(t, i+1, r.PageNumber)
		assert.True(t, r.Success)
		assert.False(t, r.Blocked)
	}

	// Jar was seeded from the stored identity before the first request.
	assert.Equal(t, testIdentity().Cookies, client.seeded)

	// Pagination mechanics: page 1 plain, later pages carry page + _rsc.
	assert.NotContains(t, client.requested[0], "page=")
	assert.Contains(t, client.requested[1], "page=2")
	assert.Contains(t, client.requested[1], "_rsc=")
	assert.Contains(t, client.requested[2], "page=3")

	// Artifacts: three bodies, jar, summary.
	assert.Equal(t, []int{1, 2, 3}, sink.pages)
	assert.Equal(t, []string{"html", "rsc.txt", "rsc.txt"}, sink.exts)
	assert.Equal(t, "cookies_chrome136.txt", sink.jarFile)
	assert.Contains(t, sink.jsonKeys, "results_chrome136.json")

	// Crawled cookies persisted against the original fingerprint row.
	assert.Equal(t, schemas.ProvenanceCrawled, repo.savedProvenance)
	assert.Equal(t, int64(7), repo.savedFPID)
	// Merged over the stored set: rotated value wins, new name appended.
	require.Len(t, repo.savedRecords, 2)
	assert.Equal(t, "rotated", repo.savedRecords[0].Value)
	assert.Equal(t, "sid", repo.savedRecords[1].Name)
}

// An undersized page 2 is a block: its result is recorded, page 3 is
// never requested, and the run reports failure.
func TestRunStopsOnBlockedPage(t *testing.T) {
	client := &mockReplayClient{
		responses: []*schemas.ReplayResponse{
			{Status: 200, Body: htmlPage("product-list", 6000)},
			{Status: 200, Body: rscPage(100)}, // far below the RSC floor
		},
	}
	sink := &mockSink{}
	repo := &mockRepo{}

	orch := NewOrchestrator(testConfig(), testIdentity(), client, repo, sink, zap.NewNop())
	summary, err := orch.Run(context.Background(), "keyboard")
	require.NoError(t, err)

	assert.False(t, summary.Success)
	require.Len(t, summary.Results, 2)
	assert.True(t, summary.Results[0].Success)
	assert.True(t, summary.Results[1].Blocked)
	assert.False(t, summary.Results[1].Success)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 1, summary.Totals.Successful)

	// The failed body is still archived for debugging.
	assert.Equal(t, []string{"html", "failed.rsc.txt"}, sink.exts)
	// Finalization still runs: summary artifact and cookie write-back.
	assert.Contains(t, sink.jsonKeys, "results_chrome136.json")
	assert.Equal(t, schemas.ProvenanceCrawled, repo.savedProvenance)
}

func TestRunStopsOnTransportError(t *testing.T) {
	client := &mockReplayClient{
		responses: []*schemas.ReplayResponse{
			{Status: 200, Body: htmlPage("product-list", 6000)},
		},
		errs: []error{nil, errors.New("tls: handshake failure")},
	}
	orch := NewOrchestrator(testConfig(), testIdentity(), client, &mockRepo{}, &mockSink{}, zap.NewNop())

	summary, err := orch.Run(context.Background(), "x")
	require.NoError(t, err)

	assert.False(t, summary.Success)
	require.Len(t, summary.Results, 2)
	assert.Contains(t, summary.Results[1].Error, "handshake failure")
	assert.Equal(t, 2, client.calls)
}

// A content miss that is not a block keeps the run going: the page is
// recorded as failed but the next one is still attempted.
func TestRunContinuesOnContentMissWithoutBlock(t *testing.T) {
	cfg := testConfig()
	cfg.Crawler.MaxPages = 2
	client := &mockReplayClient{
		responses: []*schemas.ReplayResponse{
			// Big enough to clear the floor, no markers at all.
			{Status: 200, Body: htmlPage("nothing-here", 6000)},
			{Status: 200, Body: rscPage(60000)},
		},
	}

	orch := NewOrchestrator(cfg, testIdentity(), client, &mockRepo{}, &mockSink{}, zap.NewNop())
	summary, err := orch.Run(context.Background(), "x")
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	assert.False(t, summary.Results[0].Success)
	assert.False(t, summary.Results[0].Blocked)
	assert.True(t, summary.Results[1].Success)
	assert.False(t, summary.Success)
}

func TestRunEmptyJarKeepsStoredCookies(t *testing.T) {
	cfg := testConfig()
	cfg.Crawler.MaxPages = 1
	client := &mockReplayClient{
		responses: []*schemas.ReplayResponse{
			{Status: 200, Body: htmlPage("product-list", 6000)},
		},
	}
	repo := &mockRepo{}

	orch := NewOrchestrator(cfg, testIdentity(), client, repo, &mockSink{}, zap.NewNop())
	_, err := orch.Run(context.Background(), "x")
	require.NoError(t, err)

	require.Len(t, repo.savedRecords, 1)
	assert.Equal(t, "stored", repo.savedRecords[0].Value)
}

// A failed cookie write-back is the one finalization error that
// surfaces to the caller; the summary and artifacts are complete
// regardless.
func TestRunSurfacesCookiePersistenceFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Crawler.MaxPages = 1
	client := &mockReplayClient{
		responses: []*schemas.ReplayResponse{
			{Status: 200, Body: htmlPage("product-list", 6000)},
		},
	}
	repo := &mockRepo{saveErr: errors.New("disk full")}
	sink := &mockSink{}

	orch := NewOrchestrator(cfg, testIdentity(), client, repo, sink, zap.NewNop())
	summary, err := orch.Run(context.Background(), "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// The in-memory results and the artifacts are unaffected.
	require.NotNil(t, summary)
	assert.True(t, summary.Success)
	require.Len(t, summary.Results, 1)
	assert.Contains(t, sink.jsonKeys, "results_chrome136.json")
	assert.Equal(t, "cookies_chrome136.txt", sink.jarFile)
}

func TestRunSecondPageRefererIsFirstPageURL(t *testing.T) {
	cfg := testConfig()
	cfg.Crawler.MaxPages = 2

	var rscReferer string
	client := &headerCapturingClient{
		inner: &mockReplayClient{
			responses: []*schemas.ReplayResponse{
				{Status: 200, Body: htmlPage("product-list", 6000)},
				{Status: 200, Body: rscPage(60000)},
			},
		},
		onGet: func(call int, headers map[string]string) {
			if call == 1 {
				rscReferer = headers["Referer"]
			}
		},
	}

	orch := NewOrchestrator(cfg, testIdentity(), client, &mockRepo{}, &mockSink{}, zap.NewNop())
	summary, err := orch.Run(context.Background(), "x")
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, summary.Results[0].URL, rscReferer)
	assert.True(t, strings.Contains(rscReferer, "traceid="))
}

// headerCapturingClient decorates mockReplayClient with header capture.
type headerCapturingClient struct {
	inner *mockReplayClient
	onGet func(call int, headers map[string]string)
}

func (h *headerCapturingClient) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*schemas.ReplayResponse, error) {
	h.onGet(h.inner.calls, headers)
	return h.inner.Get(ctx, url, headers, timeout)
}

func (h *headerCapturingClient) SetCookies(records []schemas.CookieRecord) {
	h.inner.SetCookies(records)
}

func (h *headerCapturingClient) Cookies() []schemas.CookieRecord { return h.inner.Cookies() }
