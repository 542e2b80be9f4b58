// File: internal/replay/verify_test.go
package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
)

const verifyBlob = `{
  "tls": {
    "connection_version": {"name": "TLS 1.3"},
    "cipher_suites": [
      {"id": 4865, "name": "TLS_AES_128_GCM_SHA256"},
      {"id": 4866, "name": "TLS_AES_256_GCM_SHA384"}
    ],
    "extensions": [
      {"id": 0, "name": "server_name"},
      {"id": 10, "name": "supported_groups", "data": {"named_groups": [{"name": "X25519"}]}}
    ]
  },
  "ja3_hash": "cafe0000000000000000000000000000"
}`

type stubClient struct {
	resp       *schemas.ReplayResponse
	err        error
	requested  string
	reqHeaders map[string]string
}

func (s *stubClient) Get(_ context.Context, url string, headers map[string]string, _ time.Duration) (*schemas.ReplayResponse, error) {
	s.requested = url
	s.reqHeaders = headers
	return s.resp, s.err
}

func (s *stubClient) SetCookies(_ []schemas.CookieRecord) {}
func (s *stubClient) Cookies() []schemas.CookieRecord     { return nil }

func storedForVerify() *schemas.Fingerprint {
	return &schemas.Fingerprint{
		TLSVersion: schemas.TLS13,
		CipherSuites: []schemas.CipherSuite{
			{ID: 4865, Name: "TLS_AES_128_GCM_SHA256"},
			{ID: 4866, Name: "TLS_AES_256_GCM_SHA384"},
		},
		SupportedGroups: []string{"X25519"},
		JA3Hash:         "cafe0000000000000000000000000000",
	}
}

func TestVerifyMatch(t *testing.T) {
	client := &stubClient{resp: &schemas.ReplayResponse{Status: 200, Body: []byte(verifyBlob)}}

	result, err := Verify(context.Background(), client, "https://oracle.test/", storedForVerify(), time.Second, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, result.Match)
	assert.Empty(t, result.Differences)
	assert.Equal(t, "https://oracle.test/json", client.requested)
	assert.Equal(t, []byte(verifyBlob), result.Blob)
	require.NotNil(t, result.Live)
	assert.Equal(t, schemas.SourceLive, result.Live.Source)
}

func TestVerifyReportsDrift(t *testing.T) {
	stored := storedForVerify()
	stored.JA3Hash = "0000000000000000000000000000beef"
	stored.SupportedGroups = []string{"secp256r1"}
	client := &stubClient{resp: &schemas.ReplayResponse{Status: 200, Body: []byte(verifyBlob)}}

	result, err := Verify(context.Background(), client, "https://oracle.test", stored, time.Second, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, result.Match)
	require.NotEmpty(t, result.Differences)
	assert.Contains(t, result.Differences[0], "ja3_hash")
}

func TestVerifyGreaseIgnoredInDiff(t *testing.T) {
	stored := storedForVerify()
	stored.SupportedGroups = []string{"TLS_GREASE (0x8a8a)", "X25519"}
	client := &stubClient{resp: &schemas.ReplayResponse{Status: 200, Body: []byte(verifyBlob)}}

	result, err := Verify(context.Background(), client, "https://oracle.test/", stored, time.Second, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, result.Match)
}

func TestVerifyTransportFailure(t *testing.T) {
	client := &stubClient{err: errors.New("connection reset")}
	_, err := Verify(context.Background(), client, "https://oracle.test/", storedForVerify(), time.Second, zap.NewNop())
	assert.Error(t, err)
}

func TestVerifyNon200(t *testing.T) {
	client := &stubClient{resp: &schemas.ReplayResponse{Status: 403, Body: []byte("denied")}}
	_, err := Verify(context.Background(), client, "https://oracle.test/", storedForVerify(), time.Second, zap.NewNop())
	assert.Error(t, err)
}
