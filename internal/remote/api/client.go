// Package api implements the remote ports against the financial-records HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

const (
	defaultTimeout = 7 * time.Second
	maxBodyBytes   = 4 << 20
	maxErrorBody   = 256

	collection = "financial-records"
)

// Ensure interface conformance
var _ remote.Backend = (*Client)(nil)

type Client struct {
	baseURL string
	http    *http.Client
	schemas *schemas
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client (timeout 7s).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("missing API base URL")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL scheme %q: must be http or https", u.Scheme)
	}
	sc, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: u.String(),
		http:    &http.Client{Timeout: defaultTimeout},
		schemas: sc,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListByUser implements remote.RecordLister.
func (c *Client) ListByUser(ctx context.Context, userID string) ([]core.Record, error) {
	var wire []record
	if err := c.do(ctx, http.MethodGet, "getAllByUserId/"+url.PathEscape(userID), nil, c.schemas.records, &wire); err != nil {
		return nil, err
	}
	out := make([]core.Record, 0, len(wire))
	for _, w := range wire {
		r, err := w.toCore()
		if err != nil {
			return nil, fmt.Errorf("list records: %w: %w", remote.ErrMalformed, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Create implements remote.RecordCreator.
func (c *Client) Create(ctx context.Context, r core.Record) (core.Record, error) {
	body := fromCore(r)
	body.ID = ""
	return c.one(ctx, http.MethodPost, "", body)
}

// Update implements remote.RecordUpdater.
func (c *Client) Update(ctx context.Context, id string, p core.Patch) (core.Record, error) {
	return c.one(ctx, http.MethodPut, url.PathEscape(id), patchFromCore(p))
}

// Delete implements remote.RecordDeleter.
func (c *Client) Delete(ctx context.Context, id string) (core.Record, error) {
	return c.one(ctx, http.MethodDelete, url.PathEscape(id), nil)
}

func (c *Client) one(ctx context.Context, method, path string, body any) (core.Record, error) {
	var w record
	if err := c.do(ctx, method, path, body, c.schemas.record, &w); err != nil {
		return core.Record{}, err
	}
	r, err := w.toCore()
	if err != nil {
		return core.Record{}, fmt.Errorf("%s record: %w: %w", strings.ToLower(method), remote.ErrMalformed, err)
	}
	return r, nil
}

// do sends body as JSON, checks the status, validates the response against
// schema and decodes it into out.
func (c *Client) do(ctx context.Context, method, path string, body any, schema *jsonschema.Schema, out any) error {
	resource := "/" + collection
	if path != "" {
		resource += "/" + path
	}
	target := c.baseURL + resource
	op := method + " " + resource

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal body: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Remote request failed", "operation", op, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("%s: %w: %w", op, remote.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: read body: %w: %w", op, remote.ErrTransport, err)
	}
	c.logger.DebugContext(ctx, "Remote request completed", "operation", op, "status_code", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &remote.StatusError{Op: op, Code: resp.StatusCode, Body: snippet(data)}
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%s: %w: %w", op, remote.ErrMalformed, err)
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("%s: %w: %w", op, remote.ErrMalformed, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %w", op, remote.ErrMalformed, err)
	}
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "…"
	}
	return s
}
