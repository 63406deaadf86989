// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the advisory client.
type ClientConfig struct {
	// BaseURL is the service base URL (default: http://127.0.0.1:11434).
	// Explicit IPv4 avoids IPv6 localhost resolution stalls on Windows.
	BaseURL string

	// Model is the default model when a request names none (default: "phi").
	Model string

	// Timeout bounds a single completion attempt (default: 180s).
	Timeout time.Duration

	// HealthTimeout bounds health and model-listing probes (default: 5s).
	HealthTimeout time.Duration

	// MaxRetries is the retry budget for transient failures. A budget of N
	// means at most N+1 attempts; zero means a single attempt, no retries.
	// Unlike the other fields, the zero value is meaningful and is never
	// replaced with a default — use DefaultConfig for the standard budget.
	MaxRetries int

	// RetryDelay is the base backoff delay, doubled per retry (default: 1s).
	RetryDelay time.Duration

	// Stream requests line-delimited fragments and aggregates them before
	// returning. Purely a transport choice; the result is identical.
	Stream bool

	// RequestsPerMinute caps the request rate against the local service so
	// retry loops cannot pile onto an already loaded GPU (default: 30).
	RequestsPerMinute int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "http://127.0.0.1:11434",
		Model:             "phi",
		Timeout:           180 * time.Second,
		HealthTimeout:     5 * time.Second,
		MaxRetries:        3,
		RetryDelay:        1 * time.Second,
		RequestsPerMinute: 30,
	}
}

func (c *ClientConfig) fillDefaults() {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.HealthTimeout == 0 {
		c.HealthTimeout = defaults.HealthTimeout
	}
	// MaxRetries is deliberately not filled: zero is a legal budget.
	if c.RetryDelay == 0 {
		c.RetryDelay = defaults.RetryDelay
	}
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = defaults.RequestsPerMinute
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the local text-generation service. It is safe for
// concurrent use; every worker in the application shares one instance.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewClient creates a client, validating the endpoint URL. A bad URL is the
// one programmer error this package refuses to defer: everything else
// (service down, model missing) surfaces later as a classified ClientError.
func NewClient(config *ClientConfig, log *zap.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.fillDefaults()

	parsed, err := url.Parse(config.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("advisory: malformed endpoint URL: " + config.BaseURL)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		config: config,
		// Per-request deadlines come from contexts; the transport itself
		// stays unbounded so streaming responses are not cut off.
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60.0), config.RequestsPerMinute),
		log:        log.Named("advisory"),
	}, nil
}

// Config returns the client configuration.
func (c *Client) Config() *ClientConfig {
	return c.config
}

// =============================================================================
// COMPLETION
// =============================================================================

// Request is one completion request. Build it with NewRequest so omitted
// fields carry the client defaults.
type Request struct {
	Prompt     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	Stream     bool
}

// NewRequest builds a completion request with client defaults applied.
func (c *Client) NewRequest(prompt string) Request {
	return Request{
		Prompt:     prompt,
		Model:      c.config.Model,
		Timeout:    c.config.Timeout,
		MaxRetries: c.config.MaxRetries,
		Stream:     c.config.Stream,
	}
}

// Complete sends a prompt with the client defaults and returns the full
// generated text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Do(ctx, c.NewRequest(prompt))
}

// Do executes a completion request with retry and exponential backoff.
// Transient failures (connection refused, timeout) are retried up to the
// budget; a missing model or malformed payload returns immediately. Each
// attempt is bounded by the request timeout, so the call as a whole blocks
// at most timeout*(retries+1) plus backoff.
func (c *Client) Do(ctx context.Context, req Request) (string, error) {
	if req.Model == "" {
		req.Model = c.config.Model
	}
	if req.Timeout <= 0 {
		req.Timeout = c.config.Timeout
	}

	var lastErr *ClientError
	attempts := req.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay << (attempt - 1)
			c.log.Warn("retrying advisory request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.String("cause", lastErr.Message))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", timeoutError(ctx.Err())
			}
		}

		text, err := c.generate(ctx, req)
		if err == nil {
			return text, nil
		}

		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			clientErr = &ClientError{Type: ErrTypeUnknown, Message: "advisory request failed", Cause: err}
		}
		if !clientErr.Retryable() {
			return "", clientErr
		}
		lastErr = clientErr
	}

	return "", lastErr
}

// generate performs one attempt against /api/generate.
func (c *Client) generate(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", timeoutError(err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	body, err := json.Marshal(GenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: req.Stream,
	})
	if err != nil {
		return "", malformedResponseError("failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", connectionError(c.config.BaseURL, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", modelNotFoundError(req.Model)
	case resp.StatusCode >= 500:
		return "", connectionError(c.config.BaseURL, errors.New("server error: "+resp.Status))
	case resp.StatusCode != http.StatusOK:
		var payload apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr == nil && payload.Error != "" {
			if strings.Contains(strings.ToLower(payload.Error), "not found") {
				return "", modelNotFoundError(req.Model)
			}
			return "", malformedResponseError(payload.Error, nil)
		}
		return "", malformedResponseError("status "+resp.Status, nil)
	}

	var text string
	if req.Stream {
		text, err = newStreamReader(resp.Body).aggregate(attemptCtx)
		if err != nil {
			return "", c.classifyTransportError(err)
		}
	} else {
		var result GenerateResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", malformedResponseError("failed to decode response", err)
		}
		text = result.Response
	}

	c.log.Debug("advisory completion",
		zap.String("model", req.Model),
		zap.Bool("stream", req.Stream),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)))
	return text, nil
}

// classifyTransportError maps a transport failure onto the taxonomy:
// deadline hits are timeouts, everything else is connection-class.
func (c *Client) classifyTransportError(err error) *ClientError {
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeoutError(err)
	}
	if errors.Is(err, context.Canceled) {
		return timeoutError(err)
	}
	return connectionError(c.config.BaseURL, err)
}

// =============================================================================
// PROBES
// =============================================================================

// HealthCheck probes /api/version with its own short timeout. A dead or
// sick service is a normal condition here, reported as false, never as an
// error.
func (c *Client) HealthCheck(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.config.BaseURL+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Version returns the service version string from /api/version.
func (c *Client) Version(ctx context.Context) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.config.BaseURL+"/api/version", nil)
	if err != nil {
		return "", connectionError(c.config.BaseURL, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", malformedResponseError("status "+resp.Status, nil)
	}
	var result VersionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", malformedResponseError("failed to decode version", err)
	}
	return result.Version, nil
}

// ListModels retrieves the installed models from /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, connectionError(c.config.BaseURL, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, malformedResponseError("status "+resp.Status, nil)
	}
	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, malformedResponseError("failed to decode model list", err)
	}
	return result.Models, nil
}

// ModelNames returns just the model names, for pickers and error messages.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return names, nil
}
