package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestComponentIsLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentStore, Output: &buf})
	l.Info("hello")
	if n := strings.Count(buf.String(), "component=store"); n != 1 {
		t.Fatalf("expected one component attr, got %d in %q", n, buf.String())
	}
	if l.Component() != ComponentStore {
		t.Fatalf("unexpected component %q", l.Component())
	}
}

func TestWithComponentReplaces(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf}).
		With(FieldUserID, "u1").
		WithComponent(ComponentHTTP)
	l.Info("hello")
	out := buf.String()
	if strings.Contains(out, "component=app") || strings.Count(out, "component=") != 1 {
		t.Fatalf("expected only component=http, got %q", out)
	}
	if !strings.Contains(out, "user_id=u1") {
		t.Fatalf("attributes added with With were lost: %q", out)
	}
}

func TestRequestLoggerLevelsAndContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf})

	var fromCtx *Logger
	h := chimw.RequestID(RequestLogger(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	if !strings.Contains(out, "HTTP request started") || !strings.Contains(out, "level=WARN msg=\"HTTP request completed\"") {
		t.Fatalf("unexpected log output: %s", out)
	}
	if !strings.Contains(out, "status_code=404") || !strings.Contains(out, "request_id=") {
		t.Fatalf("missing fields: %s", out)
	}
	if fromCtx == nil || fromCtx.Component() != ComponentHTTP {
		t.Fatalf("request logger not stored in context")
	}
}
