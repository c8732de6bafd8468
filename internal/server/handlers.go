package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zgpcy/finops-dashboard-api/internal/aggregate"
	"github.com/zgpcy/finops-dashboard-api/internal/budget"
	"github.com/zgpcy/finops-dashboard-api/internal/credentials"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
)

// credentialFields are the per-provider credential objects accepted in request bodies
type credentialFields struct {
	AWSCredentials   map[string]any `json:"awsCredentials"`
	AzureCredentials map[string]any `json:"azureCredentials"`
	GCPCredentials   map[string]any `json:"gcpCredentials"`
}

func (f credentialFields) set() aggregate.CredentialSet {
	return aggregate.CredentialSet{
		provider.ProviderAWS:   credentials.FromRequest(f.AWSCredentials),
		provider.ProviderAzure: credentials.FromRequest(f.AzureCredentials),
		provider.ProviderGCP:   credentials.FromRequest(f.GCPCredentials),
	}
}

type trendBody struct {
	Days               json.RawMessage `json:"days"`
	ConnectedProviders []string        `json:"connectedProviders"`
	credentialFields
}

type trendResponse struct {
	Success bool `json:"success"`
	aggregate.TrendResult
}

type efficiencyResponse struct {
	Success bool                        `json:"success"`
	Metrics aggregate.EfficiencyMetrics `json:"metrics"`
}

type savingsBody struct {
	ConnectedProviders []string `json:"connectedProviders"`
	credentialFields
}

type savingsResponse struct {
	Success bool `json:"success"`
	aggregate.SavingsResult
}

type costBody struct {
	StartDate   string         `json:"startDate"`
	EndDate     string         `json:"endDate"`
	Credentials map[string]any `json:"credentials"`
}

type costResponse struct {
	Success bool                 `json:"success"`
	Summary provider.CostSummary `json:"summary"`
}

type toolsResponse struct {
	Success bool       `json:"success"`
	Tools   []mcp.Tool `json:"tools"`
}

type timeseriesResponse struct {
	Success bool            `json:"success"`
	Series  json.RawMessage `json:"series"`
}

type budgetBody struct {
	Provider string  `json:"provider"`
	Amount   float64 `json:"amount"`
	Period   string  `json:"period"`
	Currency string  `json:"currency"`
}

type budgetsResponse struct {
	Success bool            `json:"success"`
	Budgets []budget.Budget `json:"budgets"`
}

// decodeBody reads an optional JSON body into v. A malformed body is a plain error and maps to 500.
func decodeBody(c echo.Context, v any) error {
	err := json.NewDecoder(c.Request().Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("invalid request body: %w", err)
}

// rawDays unwraps a JSON days value so numbers and numeric strings parse alike
func rawDays(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func parseDays(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &provider.ValidationError{Field: "days", Message: fmt.Sprintf("%q is not an integer", raw)}
	}
	return days, nil
}

func (s *Server) handleTrend(c echo.Context) error {
	var body trendBody
	rawValue := c.QueryParam("days")
	if c.Request().Method == http.MethodPost {
		if err := decodeBody(c, &body); err != nil {
			return err
		}
		rawValue = rawDays(body.Days)
	}

	days, err := parseDays(rawValue)
	if err != nil {
		return err
	}

	result, err := s.orchestrator.Trend(c.Request().Context(), aggregate.TrendRequest{
		Days:               days,
		ConnectedProviders: body.ConnectedProviders,
		Credentials:        body.set(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trendResponse{Success: true, TrendResult: result})
}

func (s *Server) handleEfficiency(c echo.Context) error {
	metrics, err := s.orchestrator.Efficiency(c.Request().Context(), nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, efficiencyResponse{Success: true, Metrics: metrics})
}

func (s *Server) handleSavings(c echo.Context) error {
	var body savingsBody
	if err := decodeBody(c, &body); err != nil {
		return err
	}

	result, err := s.orchestrator.Savings(c.Request().Context(), aggregate.SavingsRequest{
		ConnectedProviders: body.ConnectedProviders,
		Credentials:        body.set(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, savingsResponse{Success: true, SavingsResult: result})
}

func (s *Server) handleProviderCost(c echo.Context) error {
	p, err := provider.ParseProviderType(c.Param("provider"))
	if err != nil {
		return &provider.ValidationError{Field: "provider", Message: err.Error()}
	}

	var body costBody
	if err := decodeBody(c, &body); err != nil {
		return err
	}

	window, err := aggregate.ParseWindow(body.StartDate, body.EndDate, s.clock.Now())
	if err != nil {
		return err
	}

	summary, err := s.orchestrator.ProviderCost(c.Request().Context(), p, window, credentials.FromRequest(body.Credentials))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, costResponse{Success: true, Summary: summary})
}

func (s *Server) handleAWSHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, s.aws.HealthCheck(c.Request().Context()))
}

func (s *Server) handleAWSTools(c echo.Context) error {
	tools, err := s.aws.ListTools(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toolsResponse{Success: true, Tools: tools})
}

// handleTimeseries passes the body through as gateway arguments. An optional
// gcpCredentials object is lifted out and resolved like any other override.
func (s *Server) handleTimeseries(c echo.Context) error {
	args := map[string]any{}
	if err := decodeBody(c, &args); err != nil {
		return err
	}

	var overrides credentials.Overrides
	if raw, ok := args["gcpCredentials"]; ok {
		if fields, ok := raw.(map[string]any); ok {
			overrides = credentials.FromRequest(fields)
		}
		delete(args, "gcpCredentials")
	}

	series, err := s.orchestrator.Timeseries(c.Request().Context(), overrides, args)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, timeseriesResponse{Success: true, Series: series})
}

func (s *Server) handleListBudgets(c echo.Context) error {
	list, err := s.budgets.List()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, budgetsResponse{Success: true, Budgets: list})
}

func (s *Server) handleSetBudget(c echo.Context) error {
	var body budgetBody
	if err := decodeBody(c, &body); err != nil {
		return err
	}

	b, err := budget.New(body.Provider, body.Amount, body.Period, body.Currency, s.clock.Now())
	if err != nil {
		return err
	}

	list, err := s.budgets.Set(b)
	if err != nil {
		return err
	}
	s.logger.Info("Budget saved", "provider", b.Provider, "amount", b.Amount, "period", b.Period)
	return c.JSON(http.StatusOK, budgetsResponse{Success: true, Budgets: list})
}

func (s *Server) handleDeleteBudget(c echo.Context) error {
	list, err := s.budgets.Delete(c.QueryParam("provider"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, budgetsResponse{Success: true, Budgets: list})
}
