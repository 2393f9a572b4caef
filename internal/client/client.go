// Package client talks to the cities REST API.
//
// Every failure (transport error, non-2xx status, undecodable body) is
// returned as a *RequestError, which matches types.ErrRequestFailed under
// errors.Is.
package client

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/worldwise/internal/logging"
	"github.com/mesh-intelligence/worldwise/pkg/types"
)

const tracerName = "worldwise/client"

// maxErrorBody caps how much of a failed response body is kept for errors.
const maxErrorBody = 4 << 10

// RequestError describes a failed API request.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int // zero when no response was received
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both types.ErrRequestFailed and the underlying cause.
func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{types.ErrRequestFailed}
	}
	return []error{types.ErrRequestFailed, e.Err}
}

// Client is the HTTP adapter for the cities API.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger.With(slog.String("component", "client")) }
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   http.DefaultClient,
		logger: logging.Discard(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.base.String() }

// ListCities fetches every city: GET {base}/cities.
func (c *Client) ListCities(ctx context.Context) ([]types.City, error) {
	var cities []types.City
	if err := c.do(ctx, "ListCities", http.MethodGet, c.endpoint("cities"), nil, &cities); err != nil {
		return nil, err
	}
	if cities == nil {
		cities = []types.City{}
	}
	return cities, nil
}

// GetCity fetches one city: GET {base}/cities/{id}.
func (c *Client) GetCity(ctx context.Context, id types.CityID) (types.City, error) {
	var city types.City
	if err := c.do(ctx, "GetCity", http.MethodGet, c.endpoint("cities", id.String()), nil, &city); err != nil {
		return types.City{}, err
	}
	return city, nil
}

// CreateCity posts a new city and returns the stored record with its id:
// POST {base}/cities.
func (c *Client) CreateCity(ctx context.Context, city types.City) (types.City, error) {
	city.ID = ""
	var created types.City
	if err := c.do(ctx, "CreateCity", http.MethodPost, c.endpoint("cities"), city, &created); err != nil {
		return types.City{}, err
	}
	return created, nil
}

// DeleteCity removes a city: DELETE {base}/cities/{id}. No body is expected.
func (c *Client) DeleteCity(ctx context.Context, id types.CityID) error {
	return c.do(ctx, "DeleteCity", http.MethodDelete, c.endpoint("cities", id.String()), nil, nil)
}

// ListCountries fetches the derived country list: GET {base}/countries.
func (c *Client) ListCountries(ctx context.Context) ([]types.Country, error) {
	var countries []types.Country
	if err := c.do(ctx, "ListCountries", http.MethodGet, c.endpoint("countries"), nil, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.base.JoinPath(escaped...).String()
}

// do performs one request. A non-nil in is sent as JSON; a non-nil out
// receives the decoded JSON response.
func (c *Client) do(ctx context.Context, op, method, target string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
		))
	defer span.End()

	start := time.Now()
	l := c.logger.With(slog.String("method", method), slog.String("url", target))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, op+" failed")
			l.DebugContext(ctx, "request failed", slog.Any("error", err), slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			return
		}
		span.SetStatus(codes.Ok, "")
		l.DebugContext(ctx, "request completed", slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	}()

	fail := func(status int, body string, cause error) error {
		return &RequestError{Method: method, URL: target, StatusCode: status, Body: body, Err: cause}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fail(0, "", fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fail(0, "", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, "", unwrapURLError(err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail(resp.StatusCode, string(snippet), errors.New(http.StatusText(resp.StatusCode)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// unwrapURLError strips *url.Error so context errors surface directly.
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
