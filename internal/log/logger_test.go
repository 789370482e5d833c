package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf})

	l.Info("root")
	l.With("k", "v").WithComponent(ComponentStore).Debug("child")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, ComponentApp, lines[0][FieldComponent])
	assert.Equal(t, ComponentStore, lines[1][FieldComponent])
	assert.Equal(t, "v", lines[1]["k"])
	assert.Equal(t, 1, strings.Count(strings.Split(buf.String(), "\n")[1], `"component"`))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Format: "json", Output: &buf})
	l.Info("dropped")
	l.Warn("kept")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestMiddlewareCarriesLoggerAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf})

	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-1", lines[0][FieldRequestID])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.component)
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	ctx := context.Background()

	sl.LogExpenseCreated(ctx, "id-1", "Lunch", 2000, "Food", "2024-01-01")
	sl.LogError(ctx, "save failed", errors.New("boom"), ComponentPersist, OpSave, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/expenses", nil)
	sl.LogHTTPEnd(ctx, req, 422, 3, "10.0.0.1")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, ComponentExpense, lines[0][FieldComponent])
	assert.Equal(t, "id-1", lines[0][FieldExpenseID])
	assert.EqualValues(t, 2000, lines[0][FieldAmountCents])
	assert.Equal(t, "boom", lines[1][FieldError])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "WARN", lines[2]["level"])
	assert.Equal(t, false, lines[2][FieldSuccess])
}

func TestSetDefaultInstallsUntaggedHandler(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf, Component: ComponentHTTP})
	SetDefault(l)
	slog.Info("package record", FieldComponent, ComponentStore)
	l.Base().With(FieldComponent, ComponentPersist).Info("constructor record")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, ComponentStore, lines[0][FieldComponent])
	assert.Equal(t, ComponentPersist, lines[1][FieldComponent])
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, 1, strings.Count(line, `"component":`), line)
	}
}
