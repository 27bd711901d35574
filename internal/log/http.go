package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestLogger logs every inbound request once it completes and makes a
// request-scoped logger available through FromContext. requestID, when set,
// reads the id assigned by an earlier middleware.
func RequestLogger(logger *Logger, requestID func(context.Context) string) func(http.Handler) http.Handler {
	logger = OrDiscard(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With(FieldMethod, r.Method, FieldURL, r.URL.Path)
			if requestID != nil {
				if id := requestID(r.Context()); id != "" {
					reqLogger = reqLogger.With(FieldRequestID, id)
				}
			}
			r = r.WithContext(NewContext(r.Context(), reqLogger))

			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			level := slog.LevelDebug
			switch {
			case rw.status >= 500:
				level = slog.LevelError
			case rw.status >= 400:
				level = slog.LevelWarn
			}
			reqLogger.Logger.Log(r.Context(), level, "HTTP request served",
				reqLogger.attrs([]any{FieldStatus, rw.status, FieldDuration, time.Since(start).Milliseconds()})...)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Transport is an http.RoundTripper that logs every outbound request
// together with its status and duration.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

// NewTransport wraps base (http.DefaultTransport when nil) with request logging
func NewTransport(base http.RoundTripper, logger *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Logger: OrDiscard(logger)}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(r)
	elapsed := time.Since(start).Milliseconds()

	fields := NewFields()
	fields[FieldMethod] = r.Method
	fields[FieldURL] = r.URL.String()
	fields[FieldDuration] = elapsed

	if err != nil {
		fields.WithError(err).WithErrorType(ErrorTypeNetwork)
		t.Logger.WarnContext(r.Context(), "HTTP request failed", fields.ToSlice()...)
		return nil, err
	}

	fields[FieldStatus] = resp.StatusCode
	level := slog.LevelDebug
	switch {
	case resp.StatusCode >= 500:
		level = slog.LevelError
	case resp.StatusCode >= 400:
		level = slog.LevelWarn
	}
	t.Logger.Logger.Log(r.Context(), level, "HTTP request completed", t.Logger.attrs(fields.ToSlice())...)
	return resp, nil
}
