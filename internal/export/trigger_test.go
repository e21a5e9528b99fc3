package export

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cti-console/cti-console/internal/threatapi"
)

var clickTime = time.Date(2026, 10, 19, 23, 30, 0, 0, time.FixedZone("WIB", 7*3600))

func newTrigger(t *testing.T, handler http.HandlerFunc) *Trigger {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	trigger := NewTrigger(threatapi.NewClient(srv.URL, 0), nil)
	trigger.WithNow(func() time.Time { return clickTime })
	return trigger
}

func TestExportReturnsNamedFile(t *testing.T) {
	var gotLimit any
	trigger := newTrigger(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/export/csv", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotLimit = body["limit"]
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("ip,threat_score\n1.2.3.4,85\n"))
	})

	file, err := trigger.Export(context.Background(), "csv", "250")
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, float64(250), gotLimit)
	assert.Equal(t, "threats_export_2026-10-19.csv", file.Name)
	assert.Equal(t, "text/csv", file.ContentType)
	data, err := io.ReadAll(file.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1.2.3.4")
}

func TestExportSurfacesErrorFieldVerbatim(t *testing.T) {
	trigger := newTrigger(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Database connection lost"}`))
	})

	_, err := trigger.Export(context.Background(), "pdf", "100")
	require.Error(t, err)
	assert.Equal(t, "Error exporting PDF: Database connection lost", err.Error())
}

func TestExportErrorFallbacks(t *testing.T) {
	t.Run("missing error field", func(t *testing.T) {
		trigger := newTrigger(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{}`))
		})
		_, err := trigger.Export(context.Background(), "csv", "10")
		require.Error(t, err)
		assert.Equal(t, "Error exporting CSV: Unknown error", err.Error())
	})

	t.Run("non-json error body", func(t *testing.T) {
		trigger := newTrigger(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("<html>boom</html>"))
		})
		_, err := trigger.Export(context.Background(), "csv", "10")
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "Error exporting CSV: "))
		assert.True(t, threatapi.IsTransport(err))
	})

	t.Run("unsupported format", func(t *testing.T) {
		trigger := NewTrigger(nil, nil)
		_, err := trigger.Export(context.Background(), "xlsx", "10")
		require.Error(t, err)
		assert.True(t, threatapi.IsValidation(err))
	})
}

func TestParseLimit(t *testing.T) {
	cases := map[string]*int{
		"100":   intPtr(100),
		" 42 ":  intPtr(42),
		"12.7":  intPtr(12),
		"10abc": intPtr(10),
		"-5":    intPtr(-5),
		"":      nil,
		"abc":   nil,
		"+":     nil,
		"1e3":   intPtr(1),
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseLimit(raw), "input %q", raw)
	}
}

func TestSaverWritesFileAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	body := io.NopCloser(strings.NewReader("%PDF-1.4"))
	path, err := Saver{Dir: dir}.Save(File{Name: "threats_export_2026-10-19.pdf", Body: body})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "threats_export_2026-10-19.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be removed")
}

type failingReader struct{ closed bool }

func (f *failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
func (f *failingReader) Close() error             { f.closed = true; return nil }

func TestSaverRemovesTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	body := &failingReader{}
	_, err := Saver{Dir: dir}.Save(File{Name: "threats_export_2026-10-19.csv", Body: body})
	require.Error(t, err)
	assert.True(t, body.closed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func intPtr(v int) *int { return &v }
