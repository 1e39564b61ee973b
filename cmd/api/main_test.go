package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripvote/internal/config"
	"github.com/pkordes/tripvote/internal/repo"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:         "0",
		Store:        config.StoreMemory,
		LogLevel:     "info",
		CORSOrigins:  []string{"http://localhost:5173"},
		MaxBodyBytes: 1 << 10,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRouter_servesAPI(t *testing.T) {
	h, err := newRouter(testConfig(t), repo.NewMemTripRepo(), quietLogger())
	require.NoError(t, err)

	form := url.Values{"json": {`{"title":"T"}`}}
	req := httptest.NewRequest(http.MethodPost, "/trips/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/1/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"title":"T"}`, rec.Body.String())
}

func TestNewRouter_bodyLimit(t *testing.T) {
	h, err := newRouter(testConfig(t), repo.NewMemTripRepo(), quietLogger())
	require.NoError(t, err)

	form := url.Values{"json": {`{"title":"` + strings.Repeat("x", 2<<10) + `"}`}}
	req := httptest.NewRequest(http.MethodPost, "/trips/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestNewRouter_staticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kml.js"), []byte("var KMLBuilder;"), 0o600))

	cfg := testConfig(t)
	cfg.StaticDir = dir
	h, err := newRouter(cfg, repo.NewMemTripRepo(), quietLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/kml.js", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "var KMLBuilder;", rec.Body.String())
}

func TestNewRouter_rateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit = "1-H"
	h, err := newRouter(cfg, repo.NewMemTripRepo(), quietLogger())
	require.NoError(t, err)

	for _, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/", nil))
		assert.Equal(t, want, rec.Code)
	}
}

func TestNewRouter_invalidRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit = "often"

	_, err := newRouter(cfg, repo.NewMemTripRepo(), quietLogger())

	assert.ErrorContains(t, err, "RATE_LIMIT")
}

func TestRootCmd_subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
	assert.NotNil(t, root.RunE, "running without a subcommand starts the server")
}

func TestMigrateCmd_rejectsConflictingFlags(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--down", "--status"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()

	assert.ErrorContains(t, err, "mutually exclusive")
}
