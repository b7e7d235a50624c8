// Package wsclient talks to a remote idmap server.
//
// Client implements the same resolution, search and statistics contracts as
// the local engines, so callers can swap a local store for a web service.
// Error kinds survive the round trip: a remote NotFound is a local NotFound.
package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/api"
)

// Client is an HTTP client for the idmap API
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	log     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger routes request and retry logging through log
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log.With().Str("component", "wsclient").Logger()
		c.http.Logger = leveledLogger{c.log}
	}
}

// WithRetries sets the retry budget and the minimum and maximum backoff
func WithRetries(max int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.http.RetryMax = max
		c.http.RetryWaitMin = waitMin
		c.http.RetryWaitMax = waitMax
	}
}

// WithTimeout bounds each attempt
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.HTTPClient.Timeout = d
	}
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.HTTPClient.Timeout = 30 * time.Second
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    retryClient,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches path with query and decodes a JSON body into v
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return core.StorageError("decode "+path, "", err)
	}
	return nil
}

// do sends one request and turns non-2xx responses into classified errors
func (c *Client) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, core.ConfigurationErrorf("build request", "%s %s: %v", method, path, err)
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, core.StorageError(method+" "+path, "", err)
	}
	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("remote call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, responseError(resp)
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e api.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Kind != "" {
		return api.KindError(e.Kind, e.Error)
	}

	msg := fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return api.KindError(api.KindNotFound, msg)
	case resp.StatusCode >= http.StatusInternalServerError:
		return api.KindError(api.KindStorageUnavailable, msg)
	default:
		return api.KindError(api.KindBadRequest, msg)
	}
}

func xrefQuery(x core.Xref, targets ...string) url.Values {
	q := url.Values{"id": {x.ID}, "code": {x.Namespace}}
	for _, t := range targets {
		q.Add("target", t)
	}
	return q
}

func searchQuery(text string, limit int) url.Values {
	q := url.Values{"q": {text}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// leveledLogger adapts zerolog to retryablehttp's LeveledLogger
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.emit(l.log.Error(), msg, kv) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.emit(l.log.Warn(), msg, kv) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.emit(l.log.Debug(), msg, kv) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.emit(l.log.Trace(), msg, kv) }

func (l leveledLogger) emit(event *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, kv[i+1])
	}
	event.Msg(msg)
}
