// File: api/schemas/crawl.go
package schemas

// PageResult captures one crawl attempt. It is immutable after creation
// and appended, in page order, to the run's result sequence. Failed
// attempts are recorded here rather than surfaced as errors.
type PageResult struct {
	PageNumber       int    `json:"page"`
	URL              string `json:"url"`
	HTTPStatus       int    `json:"status"`
	ByteSize         int    `json:"size"`
	ElapsedMs        int64  `json:"time_ms"`
	Success          bool   `json:"success"`
	Blocked          bool   `json:"blocked"`
	SavedArtifactRef string `json:"file,omitempty"`
	Error            string `json:"error,omitempty"`
}

// RunSummary is the JSON artifact written at the end of every crawl
// run, successful or not.
type RunSummary struct {
	RunID         string       `json:"run_id"`
	Keyword       string       `json:"keyword"`
	MaxPages      int          `json:"max_pages"`
	ChromeVersion string       `json:"chrome_version"`
	DeviceName    string       `json:"device_name"`
	Results       []PageResult `json:"results"`
	Totals        RunTotals    `json:"summary"`

	// Success is true iff every attempted page succeeded and MaxPages
	// pages were attempted.
	Success bool `json:"success"`
}

// RunTotals is the per-run success count block inside RunSummary.
type RunTotals struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
}
