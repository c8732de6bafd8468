package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zgpcy/finops-dashboard-api/internal/config"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

type recordedCall struct {
	provider provider.ProviderType
	endpoint string
	outcome  string
}

type mockObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (m *mockObserver) ObserveCall(p provider.ProviderType, endpoint, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedCall{provider: p, endpoint: endpoint, outcome: outcome})
}

func TestClient_Call_PostsJSONArgs(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	obs := &mockObserver{}
	c := NewClient(provider.ProviderAzure, srv.URL+"/", WithObserver(obs))

	raw, err := c.Call(context.Background(), AzureCostPath, map[string]any{"profile": "prod"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/cost", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "prod", gotBody["profile"])

	require.Len(t, obs.calls, 1)
	assert.Equal(t, recordedCall{provider: provider.ProviderAzure, endpoint: AzureCostPath, outcome: OutcomeOK}, obs.calls[0])
}

func TestClient_Call_NilArgsSendsEmptyObject(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	_, err := NewClient(provider.ProviderGCP, srv.URL).Call(context.Background(), GCPAuditPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", body)
}

func TestClient_Call_Non2xxIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream exploded\n")
	}))
	defer srv.Close()

	obs := &mockObserver{}
	_, err := NewClient(provider.ProviderGCP, srv.URL, WithObserver(obs)).Call(context.Background(), GCPCostPath, nil)
	require.Error(t, err)

	var httpErr *provider.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "upstream exploded", httpErr.Body)
	assert.Equal(t, provider.ProviderGCP, httpErr.Provider)
	assert.Equal(t, OutcomeHTTPError, obs.calls[0].outcome)
}

func TestClient_Call_TruncatesLargeErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, strings.Repeat("x", 3*MaxErrorBodyBytes))
	}))
	defer srv.Close()

	_, err := NewClient(provider.ProviderAzure, srv.URL).Call(context.Background(), AzureAuditPath, nil)

	var httpErr *provider.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Len(t, httpErr.Body, MaxErrorBodyBytes)
}

func TestClient_Call_UnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	obs := &mockObserver{}
	_, err := NewClient(provider.ProviderAWS, url, WithObserver(obs)).Call(context.Background(), AWSToolCallPath, nil)
	require.Error(t, err)

	var unreachable *provider.UnreachableError
	require.True(t, errors.As(err, &unreachable))
	assert.Equal(t, url+AWSToolCallPath, unreachable.URL)
	assert.Equal(t, OutcomeUnreachable, obs.calls[0].outcome)
}

func TestClient_Call_TimeoutIsUnreachable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(provider.ProviderAzure, srv.URL, WithTimeout(50*time.Millisecond)).
		Call(context.Background(), AzureCostPath, nil)

	var unreachable *provider.UnreachableError
	assert.True(t, errors.As(err, &unreachable), "timeout should surface as unreachable, got %v", err)
}

func TestClient_WithTimeout_LeavesSharedClientUntouched(t *testing.T) {
	tests := []struct {
		name string
		opts func(hc *http.Client) []Option
	}{
		{"timeout after client", func(hc *http.Client) []Option {
			return []Option{WithHTTPClient(hc), WithTimeout(2 * time.Second)}
		}},
		{"timeout before client", func(hc *http.Client) []Option {
			return []Option{WithTimeout(2 * time.Second), WithHTTPClient(hc)}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared := &http.Client{Transport: http.DefaultTransport}
			c := NewClient(provider.ProviderAWS, "http://gateway", tt.opts(shared)...)

			assert.Zero(t, shared.Timeout)
			assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
			assert.Equal(t, shared.Transport, c.httpClient.Transport)
		})
	}
}

func TestClient_Call_RecordsSpans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == GCPCostPath {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	c := NewClient(provider.ProviderGCP, srv.URL, WithTracerProvider(tp))

	_, err := c.Call(context.Background(), GCPAuditPath, nil)
	require.NoError(t, err)
	_, err = c.Call(context.Background(), GCPCostPath, nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	ok, failed := spans[0], spans[1]
	assert.Equal(t, "gateway.call", ok.Name())
	assert.Equal(t, trace.SpanKindClient, ok.SpanKind())
	assert.Contains(t, ok.Attributes(), attribute.String("provider", "gcp"))
	assert.Contains(t, ok.Attributes(), attribute.String("endpoint", GCPAuditPath))
	assert.Contains(t, ok.Attributes(), attribute.String("status", OutcomeOK))
	assert.Equal(t, codes.Unset, ok.Status().Code)

	assert.Contains(t, failed.Attributes(), attribute.String("status", OutcomeHTTPError))
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.Len(t, failed.Events(), 1)
	assert.Equal(t, "exception", failed.Events()[0].Name)
}

func TestClient_Call_PropagatesTraceContext(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, err := NewClient(provider.ProviderAzure, srv.URL, WithTracerProvider(tp)).Call(context.Background(), AzureCostPath, nil)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, traceparent, spans[0].SpanContext().TraceID().String())
}

func TestClient_Call_NonJSONSuccessIsNormalizationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>proxy login</html>")
	}))
	defer srv.Close()

	_, err := NewClient(provider.ProviderAzure, srv.URL).Call(context.Background(), AzureCostPath, nil)

	var normErr *provider.NormalizationError
	assert.True(t, errors.As(err, &normErr))
}

func TestAWSClient_CallTool_WrapsToolAndArguments(t *testing.T) {
	var got struct {
		Tool      string         `json:"tool"`
		Arguments map[string]any `json:"arguments"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, AWSToolCallPath, r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"accounts_cost_data":{}}`)
	}))
	defer srv.Close()

	_, err := NewAWSClient(srv.URL).CallTool(context.Background(), AWSToolGetCost, map[string]any{"profiles": []string{"default"}})
	require.NoError(t, err)

	assert.Equal(t, AWSToolGetCost, got.Tool)
	assert.Equal(t, []any{"default"}, got.Arguments["profiles"])
}

func TestAWSClient_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, AWSHealthPath, r.URL.Path)
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		}))
		defer srv.Close()

		status := NewAWSClient(srv.URL).HealthCheck(context.Background())
		assert.True(t, status.Healthy)
		assert.Equal(t, "ok", status.Status)
	})

	t.Run("non-2xx is unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		status := NewAWSClient(srv.URL).HealthCheck(context.Background())
		assert.False(t, status.Healthy)
		assert.NotEmpty(t, status.Error)
	})

	t.Run("unreachable is unhealthy", func(t *testing.T) {
		status := NewAWSClient("http://127.0.0.1:1").HealthCheck(context.Background())
		assert.False(t, status.Healthy)
	})
}

func TestAWSClient_ListTools(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool(AWSToolGetCost, mcp.WithDescription("Cost by service for one or more profiles")),
		mcp.NewTool(AWSToolAudit, mcp.WithDescription("Stopped instances and unattached volumes")),
	}

	t.Run("wrapped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"tools": tools})
		}))
		defer srv.Close()

		got, err := NewAWSClient(srv.URL).ListTools(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, AWSToolGetCost, got[0].Name)
		assert.Equal(t, "Stopped instances and unattached volumes", got[1].Description)
	})

	t.Run("bare array", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(tools)
		}))
		defer srv.Close()

		got, err := NewAWSClient(srv.URL).ListTools(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unexpected shape", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `"nope"`)
		}))
		defer srv.Close()

		_, err := NewAWSClient(srv.URL).ListTools(context.Background())
		var normErr *provider.NormalizationError
		assert.True(t, errors.As(err, &normErr))
	})
}

func TestSet_Do_RoutesByProvider(t *testing.T) {
	newGateway := func(name string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"gateway": name, "path": r.URL.Path})
		}))
	}
	aws, azure, gcp := newGateway("aws"), newGateway("azure"), newGateway("gcp")
	defer aws.Close()
	defer azure.Close()
	defer gcp.Close()

	set := NewSet(config.Gateways{AWSBaseURL: aws.URL, AzureBaseURL: azure.URL, GCPBaseURL: gcp.URL})

	tests := []struct {
		spec     provider.CallSpec
		wantJSON string
	}{
		{provider.CallSpec{Provider: provider.ProviderAWS, Endpoint: AWSToolGetCost}, `{"gateway":"aws","path":"/mcp/tools/call"}`},
		{provider.CallSpec{Provider: provider.ProviderAzure, Endpoint: AzureAdvisorPath}, `{"gateway":"azure","path":"/api/advisor"}`},
		{provider.CallSpec{Provider: provider.ProviderGCP, Endpoint: GCPRecommenderPath}, `{"gateway":"gcp","path":"/api/recommender"}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.spec.Provider), func(t *testing.T) {
			raw, err := set.Do(context.Background(), tt.spec)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, string(raw))
		})
	}

	_, err := set.Do(context.Background(), provider.CallSpec{Provider: "oracle"})
	assert.Error(t, err)
}
