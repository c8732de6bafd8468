package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zgpcy/finops-dashboard-api/internal/clock"
	"github.com/zgpcy/finops-dashboard-api/internal/config"
	"github.com/zgpcy/finops-dashboard-api/internal/gateway"
	"github.com/zgpcy/finops-dashboard-api/internal/logger"
	"github.com/zgpcy/finops-dashboard-api/internal/provider"
	"github.com/zgpcy/finops-dashboard-api/internal/version"
)

// HealthProber is a gateway that can report its own health. *gateway.AWSClient satisfies it.
type HealthProber interface {
	HealthCheck(ctx context.Context) gateway.HealthStatus
}

// GatewayCollector implements prometheus.Collector for gateway traffic, degraded
// providers and the AWS gateway health probe
type GatewayCollector struct {
	prober HealthProber
	cfg    *config.Config
	logger *logger.Logger
	clock  clock.Clock // Time provider for testing

	// Metrics
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	degradedTotal      *prometheus.CounterVec
	probeFailuresTotal *prometheus.CounterVec
	upMetric           *prometheus.Desc
	lastProbeMetric    *prometheus.Desc
	buildInfo          *prometheus.GaugeVec // Build version information

	// State
	mu           sync.RWMutex
	lastStatus   gateway.HealthStatus
	lastError    error
	lastProbe    time.Time
	probeStarted atomic.Bool // Prevent multiple probe goroutines
	isReady      bool
}

// NewGatewayCollector creates a new GatewayCollector
func NewGatewayCollector(prober HealthProber, cfg *config.Config, log *logger.Logger) *GatewayCollector {
	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finops_api_build_info",
			Help: "Build version information",
		},
		[]string{"version", "git_commit", "build_date", "go_version"},
	)

	// Set build info to 1 with version labels
	versionInfo := version.Info()
	buildInfo.With(prometheus.Labels{
		"version":    versionInfo["version"],
		"git_commit": versionInfo["git_commit"],
		"build_date": versionInfo["build_date"],
		"go_version": versionInfo["go_version"],
	}).Set(1)

	return &GatewayCollector{
		prober: prober,
		cfg:    cfg,
		logger: log,
		clock:  clock.RealClock{},
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_gateway_requests_total",
				Help: "Total number of provider gateway calls by outcome",
			},
			[]string{"provider", "endpoint", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finops_gateway_request_duration_seconds",
				Help:    "Duration of provider gateway calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "endpoint"},
		),
		degradedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_aggregation_degraded_total",
				Help: "Total number of provider results replaced by zeros during aggregation",
			},
			[]string{"operation", "provider"},
		),
		probeFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finops_gateway_probe_failures_total",
				Help: "Total number of failed gateway health probes",
			},
			[]string{"provider"},
		),
		upMetric: prometheus.NewDesc(
			"finops_gateway_up",
			"Was the last gateway health probe successful (1 = healthy, 0 = unhealthy)",
			[]string{"provider"},
			nil,
		),
		lastProbeMetric: prometheus.NewDesc(
			"finops_gateway_last_probe_timestamp_seconds",
			"Unix timestamp of the last gateway health probe",
			[]string{"provider"},
			nil,
		),
		buildInfo: buildInfo,
	}
}

// Describe implements prometheus.Collector
func (c *GatewayCollector) Describe(ch chan<- *prometheus.Desc) {
	c.requestsTotal.Describe(ch)
	c.requestDuration.Describe(ch)
	c.degradedTotal.Describe(ch)
	c.probeFailuresTotal.Describe(ch)
	ch <- c.upMetric
	ch <- c.lastProbeMetric
	c.buildInfo.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *GatewayCollector) Collect(ch chan<- prometheus.Metric) {
	c.requestsTotal.Collect(ch)
	c.requestDuration.Collect(ch)
	c.degradedTotal.Collect(ch)
	c.probeFailuresTotal.Collect(ch)

	c.mu.RLock()
	defer c.mu.RUnlock()

	providerName := string(provider.ProviderAWS)

	// Nothing to report until the first probe has run
	if !c.lastProbe.IsZero() {
		upValue := 0.0
		if c.lastStatus.Healthy {
			upValue = 1.0
		}
		ch <- prometheus.MustNewConstMetric(
			c.upMetric,
			prometheus.GaugeValue,
			upValue,
			providerName,
		)
		ch <- prometheus.MustNewConstMetric(
			c.lastProbeMetric,
			prometheus.GaugeValue,
			float64(c.lastProbe.Unix()),
			providerName,
		)
	}

	c.buildInfo.Collect(ch)
}

// ObserveCall implements gateway.Observer
func (c *GatewayCollector) ObserveCall(p provider.ProviderType, endpoint, outcome string, duration time.Duration) {
	c.requestsTotal.With(prometheus.Labels{
		"provider": string(p),
		"endpoint": endpoint,
		"outcome":  outcome,
	}).Inc()
	c.requestDuration.With(prometheus.Labels{
		"provider": string(p),
		"endpoint": endpoint,
	}).Observe(duration.Seconds())
}

// ObserveDegraded implements aggregate.Observer
func (c *GatewayCollector) ObserveDegraded(operation string, p provider.ProviderType) {
	c.degradedTotal.With(prometheus.Labels{
		"operation": operation,
		"provider":  string(p),
	}).Inc()
}

// StartBackgroundProbe probes the gateway now and then every HealthInterval seconds.
// Uses atomic flag to prevent multiple probe goroutines
func (c *GatewayCollector) StartBackgroundProbe(ctx context.Context) {
	if !c.probeStarted.CompareAndSwap(false, true) {
		c.logger.Warn("Background probe already started, skipping")
		return
	}

	// Initial probe
	c.probe(ctx)

	ticker := time.NewTicker(time.Duration(c.cfg.HealthInterval) * time.Second)
	go func() {
		defer ticker.Stop()
		defer c.probeStarted.Store(false) // Reset on exit
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stopping background probe")
				return
			case <-ticker.C:
				c.probe(ctx)
			}
		}
	}()
}

// probe checks the gateway and updates the cached status
func (c *GatewayCollector) probe(ctx context.Context) {
	status := c.prober.HealthCheck(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastProbe = c.clock.Now()
	c.lastStatus = status
	c.isReady = true

	if !status.Healthy {
		c.lastError = errors.New(unhealthyReason(status))
		c.probeFailuresTotal.With(prometheus.Labels{"provider": string(provider.ProviderAWS)}).Inc()
		c.logger.Warn("Gateway health probe failed", "provider", provider.ProviderAWS, "error", c.lastError)
		return
	}

	c.lastError = nil
	c.logger.Debug("Gateway healthy", "provider", provider.ProviderAWS, "status", status.Status)
}

func unhealthyReason(s gateway.HealthStatus) string {
	switch {
	case s.Error != "":
		return s.Error
	case s.Status != "":
		return "gateway reported status " + s.Status
	default:
		return "gateway unhealthy"
	}
}

// IsReady returns true once the first health probe has completed. An unhealthy
// gateway does not make the API unready since its results degrade to zero.
func (c *GatewayCollector) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// LastError returns the error from the last failed probe, nil when healthy
func (c *GatewayCollector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// LastProbeTime returns the time of the last probe
func (c *GatewayCollector) LastProbeTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastProbe
}

// LastStatus returns the result of the last probe
func (c *GatewayCollector) LastStatus() gateway.HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastStatus
}
