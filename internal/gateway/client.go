package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/stage-portal/pkg/apierr"
)

// TokenSource exposes the current credential token. The session store
// implements it; an empty string means no credentials are attached.
type TokenSource interface {
	Token() string
}

// Client is the single choke point for all remote calls. It attaches
// credentials, serialises payloads and normalises every outcome into the
// apierr taxonomy. Each call is independent, so the client is safe for
// concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
	metrics *Metrics
}

// Options groups constructor dependencies.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
	Logger  *zap.Logger
	Metrics *Metrics
}

// New constructs a Client with sane defaults.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		tokens:  opts.Tokens,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// errorBody is the defensive parse target for non-2xx payloads: the server
// sometimes says `error`, sometimes `message`.
type errorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// Do issues a single request against the API. The body, when non-nil, is
// JSON encoded; a 2xx response with a body is decoded into out when out is
// non-nil. A 204 or empty body leaves out untouched and returns success.
// Failed calls return immediately with a typed error; retrying is the
// caller's decision.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	return c.DoRoute(ctx, method, endpoint, endpoint, body, out)
}

// DoRoute issues the request against endpoint while metrics are recorded
// under route, keeping the label series bounded when the path embeds
// record ids.
func (c *Client) DoRoute(ctx context.Context, method, route, endpoint string, body, out interface{}) error {
	start := time.Now()
	err := c.do(ctx, method, endpoint, body, out)
	if c.metrics != nil {
		c.metrics.observe(route, method, apierr.KindOf(err), err == nil, time.Since(start))
	}
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apierr.Wrap(err, apierr.KindUnknown, 0, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return apierr.Wrap(err, apierr.KindUnknown, 0, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return apierr.Wrap(err, apierr.KindNetwork, 0, "cannot reach server")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.Wrap(err, apierr.KindNetwork, 0, "read response body")
	}

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(resp.StatusCode, raw)
	}

	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.Wrap(err, apierr.KindUnknown, resp.StatusCode, "decode response body")
	}
	return nil
}

func (c *Client) classify(status int, raw []byte) *apierr.Error {
	var parsed errorBody
	_ = json.Unmarshal(raw, &parsed)

	message := parsed.Error
	if message == "" {
		message = parsed.Message
	}
	if message == "" && len(raw) > 0 && !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}

	e := apierr.FromStatus(status, message)
	if len(parsed.Errors) > 0 {
		e.Fields = parsed.Errors
	}
	return e
}
