package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. It
// implements ports.Metrics.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Pipeline metrics
	MapsBuilt      *prometheus.CounterVec
	BuildDuration  *prometheus.HistogramVec
	LLMCalls       *prometheus.CounterVec
	Fallbacks      *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	RewrittenNodes *prometheus.CounterVec

	// Query bus metrics
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		MapsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maps_built_total",
			Help:      "Total number of decision maps built",
		}, []string{"domain", "llm_used"}),
		BuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "map_build_duration_seconds",
			Help:      "Map build duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"domain"}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Model calls by pipeline stage and outcome",
		}, []string{"stage", "outcome"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Deterministic fallbacks by pipeline stage",
		}, []string{"stage"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewrite_cache_lookups_total",
			Help:      "Rewrite cache lookups by result",
		}, []string{"result"}),
		RewrittenNodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_rewritten_total",
			Help:      "Nodes whose final text came from each source",
		}, []string{"source"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Query bus requests by query and outcome",
		}, []string{"query", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query bus latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.MapsBuilt,
		c.BuildDuration,
		c.LLMCalls,
		c.Fallbacks,
		c.CacheLookups,
		c.RewrittenNodes,
		c.Queries,
		c.QueryDuration,
	)
	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// MapBuilt implements ports.Metrics
func (c *Collector) MapBuilt(domain string, llmUsed bool, elapsed time.Duration) {
	c.MapsBuilt.WithLabelValues(domain, strconv.FormatBool(llmUsed)).Inc()
	c.BuildDuration.WithLabelValues(domain).Observe(elapsed.Seconds())
}

// LLMCall implements ports.Metrics
func (c *Collector) LLMCall(stage, outcome string) {
	c.LLMCalls.WithLabelValues(stage, outcome).Inc()
}

// Fallback implements ports.Metrics
func (c *Collector) Fallback(stage string) {
	c.Fallbacks.WithLabelValues(stage).Inc()
}

// RewriteCache implements ports.Metrics
func (c *Collector) RewriteCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// NodesRewritten implements ports.Metrics
func (c *Collector) NodesRewritten(source string, n int) {
	if n > 0 {
		c.RewrittenNodes.WithLabelValues(source).Add(float64(n))
	}
}

// Query implements ports.Metrics
func (c *Collector) Query(name, outcome string, elapsed time.Duration) {
	c.Queries.WithLabelValues(name, outcome).Inc()
	c.QueryDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}
