package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub019/pkg/bashrs"
)

func TestLintEndpoint_ReturnsDiagnostics(t *testing.T) {
	router := NewRouter(nil)
	body, err := json.Marshal(lintRequest{Filename: "t.sh", Source: "f=foo\necho $f\n"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/lint", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res bashrs.LintResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == "SC2086" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPurifyEndpoint_ReturnsPurifiedOutput(t *testing.T) {
	router := NewRouter(nil)
	body, err := json.Marshal(purifyRequest{Filename: "deploy.sh", Source: "mkdir /opt/app\n"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/purify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res bashrs.PurifyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, string(res.Output), "mkdir -p")
}

func TestLintEndpoint_RejectsMalformedBody(t *testing.T) {
	router := NewRouter(nil)
	req := httptest.NewRequest(http.MethodPost, "/lint", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
