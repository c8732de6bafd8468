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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// MaxErrorBodyBytes caps how much of a failed response body is kept on an HTTPError
const MaxErrorBodyBytes = 4 << 10

// DefaultTimeout applies when no timeout is configured
const DefaultTimeout = 30 * time.Second

// Call outcomes reported to the Observer
const (
	OutcomeOK          = "ok"
	OutcomeHTTPError   = "http_error"
	OutcomeUnreachable = "unreachable"
	OutcomeInvalid     = "invalid_response"
)

// Observer receives one notification per outbound gateway call
type Observer interface {
	ObserveCall(p provider.ProviderType, endpoint, outcome string, duration time.Duration)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-call timeout. A client passed to WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTracerProvider sets where gateway spans go. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}

// WithObserver attaches a call observer
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client issues JSON calls against one provider gateway. It holds no per-call state.
type Client struct {
	provider       provider.ProviderType
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	observer       Observer
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
}

// NewClient creates a client for the gateway at baseURL
func NewClient(p provider.ProviderType, baseURL string, opts ...Option) *Client {
	c := &Client{
		provider:   p,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	c.tracer = c.tracerProvider.Tracer("github.com/zgpcy/finops-dashboard-api/gateway")
	return c
}

// Provider returns the provider this client talks to
func (c *Client) Provider() provider.ProviderType {
	return c.provider
}

// BaseURL returns the gateway base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call POSTs args as JSON to baseURL+endpoint exactly once and returns the raw response body.
// Transport failures yield *provider.UnreachableError, non-2xx statuses *provider.HTTPError.
func (c *Client) Call(ctx context.Context, endpoint string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", c.provider, err)
	}
	return c.do(ctx, http.MethodPost, endpoint, body)
}

// get issues a GET against baseURL+endpoint
func (c *Client) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (json.RawMessage, error) {
	url := c.baseURL + endpoint

	ctx, span := c.tracer.Start(ctx, "gateway.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider", string(c.provider)),
			attribute.String("endpoint", endpoint),
			attribute.String("http.method", method),
		))
	defer span.End()

	start := time.Now()
	raw, outcome, err := c.roundTrip(ctx, method, url, body)
	c.observe(endpoint, outcome, time.Since(start))

	span.SetAttributes(attribute.String("status", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, method, url string, body []byte) (json.RawMessage, string, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, OutcomeUnreachable, &provider.UnreachableError{Provider: c.provider, URL: url, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, OutcomeUnreachable, &provider.UnreachableError{Provider: c.provider, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Best effort: a body that cannot be read still yields the status
		text, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodyBytes))
		return nil, OutcomeHTTPError, &provider.HTTPError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, OutcomeUnreachable, &provider.UnreachableError{Provider: c.provider, URL: url, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if !json.Valid(data) {
		return nil, OutcomeInvalid, &provider.NormalizationError{Provider: c.provider, Reason: "gateway response is not valid JSON"}
	}
	return json.RawMessage(data), OutcomeOK, nil
}

func (c *Client) observe(endpoint, outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveCall(c.provider, endpoint, outcome, d)
	}
}
