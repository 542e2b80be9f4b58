// File: internal/artifacts/sink.go
// Description: Filesystem artifact sink. Every run leaves its raw page
// bodies under html/, its JSON outputs under json/ and the Netscape
// cookie jar under logs/, all below one configurable base directory.

package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
	"github.com/xkilldash9x/fpcrawl/internal/cookies"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const artifactFileMode = 0o644

// Sink writes run artifacts below a base directory.
type Sink struct {
	htmlDir string
	jsonDir string
	logsDir string
	logger  *zap.Logger
}

var _ schemas.ArtifactSink = (*Sink)(nil)

// NewSink creates the directory layout and returns a ready sink.
func NewSink(baseDir string, logger *zap.Logger) (*Sink, error) {
	s := &Sink{
		htmlDir: filepath.Join(baseDir, "html"),
		jsonDir: filepath.Join(baseDir, "json"),
		logsDir: filepath.Join(baseDir, "logs"),
		logger:  logger.Named("artifacts"),
	}
	for _, dir := range []string{s.htmlDir, s.jsonDir, s.logsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("artifacts: create %s: %w", dir, err)
		}
	}
	return s, nil
}

// SavePage writes one crawled page body. The filename carries the page
// number and the Chrome major version so consecutive runs with
// different browsers do not collide.
func (s *Sink) SavePage(content []byte, pageNumber int, chromeVersion string, ext string) (string, error) {
	major, _, _ := strings.Cut(chromeVersion, ".")
	path := filepath.Join(s.htmlDir, fmt.Sprintf("page_%d_chrome%s.%s", pageNumber, major, ext))
	if err := os.WriteFile(path, content, artifactFileMode); err != nil {
		return "", fmt.Errorf("artifacts: write page: %w", err)
	}
	return path, nil
}

// SaveJSON marshals v with indentation and writes it under json/.
func (s *Sink) SaveJSON(v any, filename string) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("artifacts: marshal %s: %w", filename, err)
	}
	path := filepath.Join(s.jsonDir, filename)
	if err := os.WriteFile(path, data, artifactFileMode); err != nil {
		return "", fmt.Errorf("artifacts: write %s: %w", filename, err)
	}
	return path, nil
}

// SaveCookieJar writes the records as a Netscape jar under logs/ so
// curl and wget can replay the session directly.
func (s *Sink) SaveCookieJar(records []schemas.CookieRecord, filename string) (string, error) {
	path := filepath.Join(s.logsDir, filename)
	if err := os.WriteFile(path, []byte(cookies.ToNetscape(records)), artifactFileMode); err != nil {
		return "", fmt.Errorf("artifacts: write cookie jar: %w", err)
	}
	return path, nil
}
