// File: internal/crawler/validate_test.go
package crawler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/fpcrawl/internal/config"
)

func testCrawlerConfig() config.CrawlerConfig {
	return config.CrawlerConfig{
		Page1MinBytes:  5000,
		PageNMinBytes:  50000,
		ContentMarkers: []string{"product-list", "search-product"},
		RSCMarkers:     []string{"\"product", "search-product", "srp_"},
		BlockMarkers:   []string{"ERR_", "location.reload", "captcha"},
	}
}

// pad grows a body past a size floor without adding markers.
func pad(body string, size int) []byte {
	return append([]byte(body), bytes.Repeat([]byte{' '}, size)...)
}

func TestValidatePage1Success(t *testing.T) {
	v := NewValidator(testCrawlerConfig())
	body := pad(`<html><body><ul id="product-list"><li>item</li></ul></body></html>`, 6000)

	got := v.Validate(body, 1)
	assert.True(t, got.HasContent)
	assert.False(t, got.Blocked)
}

func TestValidatePage1StructuralMatch(t *testing.T) {
	v := NewValidator(testCrawlerConfig())
	// Marker appears only inside a class attribute; substring search
	// would also hit, but the selector path must not panic on real HTML.
	body := pad(`<html><body><div class="search-product-wrap"></div></body></html>`, 6000)

	got := v.Validate(body, 1)
	assert.True(t, got.HasContent)
}

func TestValidatePage1UndersizedIsBlocked(t *testing.T) {
	v := NewValidator(testCrawlerConfig())

	got := v.Validate([]byte("<html>tiny</html>"), 1)
	assert.True(t, got.Blocked)
	assert.False(t, got.HasContent)
}

func TestValidatePage1BlockMarkers(t *testing.T) {
	v := NewValidator(testCrawlerConfig())
	for _, marker := range []string{"ERR_HTTP2_PROTOCOL_ERROR", "location.reload()", "captcha"} {
		body := pad("<html><body>"+marker+"</body></html>", 6000)
		got := v.Validate(body, 1)
		assert.True(t, got.Blocked, "marker %q", marker)
	}
}

func TestValidateRSCPage(t *testing.T) {
	v := NewValidator(testCrawlerConfig())

	big := pad(`1:["$","div",null,{"children":[["srp_item"]]}]`, 60000)
	got := v.Validate(big, 2)
	assert.True(t, got.HasContent)
	assert.False(t, got.Blocked)

	// RSC markers match case-insensitively.
	upper := pad(strings.ToUpper(`"PRODUCT`), 60000)
	got = v.Validate(upper, 2)
	assert.True(t, got.HasContent)
}

func TestValidateRSCUndersizedIsBlocked(t *testing.T) {
	v := NewValidator(testCrawlerConfig())

	got := v.Validate(pad(`srp_`, 10000), 2)
	assert.True(t, got.Blocked)
	// Content detection runs independently of the block verdict.
	assert.True(t, got.HasContent)
}

func TestValidateRSCBlockMarkersOverrideSize(t *testing.T) {
	v := NewValidator(testCrawlerConfig())
	// A block marker classifies the page as blocked even when the body
	// clears the RSC size floor.
	for _, marker := range []string{"ERR_HTTP2_PROTOCOL_ERROR", "location.reload()", "captcha"} {
		body := pad(`1:["$","div",null,{}]`+marker, 60000)
		got := v.Validate(body, 2)
		assert.True(t, got.Blocked, "marker %q", marker)
	}
}
