package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		records = append(records, rec)
	}
	return records
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "DEBUG"},
		{"client error", http.StatusNotFound, "WARN"},
		{"server error", http.StatusBadGateway, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: ComponentMetrics})

			var scoped *Logger
			h := RequestLogger(logger, func(context.Context) string { return "req-1" })(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					scoped = FromContext(r.Context())
					w.WriteHeader(tt.status)
				}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if scoped == nil || scoped.component != ComponentMetrics {
				t.Errorf("request logger not found in context: %+v", scoped)
			}
			records := decodeLines(t, &buf)
			if len(records) != 1 {
				t.Fatalf("records = %d, want 1", len(records))
			}
			rec := records[0]
			if rec["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", rec["level"], tt.wantLevel)
			}
			if rec[FieldStatus] != float64(tt.status) || rec[FieldRequestID] != "req-1" || rec[FieldURL] != "/healthz" {
				t.Errorf("record = %v", rec)
			}
		})
	}
}

func TestFromContextFallback(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.component != "unknown" {
		t.Errorf("FromContext() = %+v", l)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransport(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf})

	ok := NewTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusInternalServerError, Body: http.NoBody, Request: r}, nil
	}), logger)
	req := httptest.NewRequest(http.MethodGet, "http://api.test/income-entries", nil)
	if _, err := ok.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}

	failing := NewTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}), logger)
	if _, err := failing.RoundTrip(req); err == nil {
		t.Fatal("RoundTrip() error = nil, want the transport error")
	}

	records := decodeLines(t, &buf)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0]["level"] != "ERROR" || records[0][FieldStatus] != float64(500) {
		t.Errorf("first record = %v", records[0])
	}
	if records[1]["level"] != "WARN" || records[1][FieldErrorType] != ErrorTypeNetwork {
		t.Errorf("second record = %v", records[1])
	}
}
