// Package rest talks to the kakebo HTTP backend. Every resource shares one
// Client; responses are wrapped in a {"data": ..., "msg": ...} envelope and
// failures carry {"detail": ...}.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"kakebo/internal/core"
	applog "kakebo/internal/log"
)

const defaultTimeout = 15 * time.Second

// Encoding selects how request bodies are sent.
type Encoding int

const (
	JSON Encoding = iota
	// Multipart sends the top-level fields of the body as form fields.
	Multipart
)

// Client performs requests against one backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *applog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its transport is
// still wrapped with request logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for request logging.
func WithLogger(l *applog.Logger) Option {
	return func(c *Client) { c.logger = applog.OrDiscard(l).WithComponent(applog.ComponentREST) }
}

// NewClient returns a client rooted at baseURL, e.g. "http://localhost:8000".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	wrapped := *c.http
	wrapped.Transport = applog.NewTransport(c.http.Transport, c.logger)
	c.http = &wrapped
	return c, nil
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Msg    string          `json:"msg"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Do sends one request and decodes the envelope data into out (may be nil).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any, enc Encoding, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		var err error
		reader, contentType, err = encode(body, enc)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return &core.NetworkError{Err: context.DeadlineExceeded}
		}
		return &core.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &core.NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &core.APIError{Status: resp.StatusCode, Detail: "malformed response: " + err.Error()}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &core.APIError{Status: resp.StatusCode, Detail: "unexpected response data: " + err.Error()}
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var body errorBody
	detail := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil {
		detail = detailText(body)
	}
	if status == http.StatusNotFound {
		return &core.NotFoundError{Detail: detail, Resource: "entry"}
	}
	return &core.APIError{Status: status, Detail: detail}
}

func detailText(body errorBody) string {
	if len(body.Errors) > 0 {
		parts := make([]string, 0, len(body.Errors))
		for _, e := range body.Errors {
			parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
		}
		return strings.Join(parts, "; ")
	}
	if len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
		// FastAPI's default validation detail is a list of {loc, msg}
		var list []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &list); err == nil && len(list) > 0 {
			msgs := make([]string, len(list))
			for i, d := range list {
				msgs[i] = d.Msg
			}
			return strings.Join(msgs, "; ")
		}
		return string(body.Detail)
	}
	return body.Msg
}

func encode(body any, enc Encoding) (io.Reader, string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	if enc == JSON {
		return bytes.NewReader(b), "application/json", nil
	}

	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, "", fmt.Errorf("multipart body must be an object: %w", err)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range keys {
		v := fields[k]
		if v == nil {
			continue
		}
		var s string
		switch x := v.(type) {
		case string:
			s = x
		case float64, bool:
			s = fmt.Sprint(x)
		default:
			nested, err := json.Marshal(x)
			if err != nil {
				return nil, "", err
			}
			s = string(nested)
		}
		if err := w.WriteField(k, s); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
