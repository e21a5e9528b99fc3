package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSavesExport(t *testing.T) {
	var gotLimit any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/export/csv", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotLimit = body["limit"]
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("ip,score\n1.2.3.4,90\n"))
	}))
	defer srv.Close()
	t.Setenv("THREAT_API_URL", srv.URL)

	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-format", "csv", "-limit", "50", "-out", dir}, &stdout, &stderr)
	require.NoError(t, err)

	path := strings.TrimSpace(stdout.String())
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "threats_export_"))
	assert.Equal(t, float64(50), gotLimit)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ip,score\n1.2.3.4,90\n", string(data))
}

func TestRunReportsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"PDF export not available"}`))
	}))
	defer srv.Close()
	t.Setenv("THREAT_API_URL", srv.URL)

	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-format", "pdf", "-out", dir}, &stdout, &stderr)
	require.Error(t, err)
	assert.Equal(t, "Error exporting PDF: PDF export not available", err.Error())
	assert.Empty(t, stdout.String())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-format", "xml"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}
