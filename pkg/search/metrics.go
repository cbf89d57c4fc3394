package search

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for the search pipeline.
type Metrics struct {
	SearchesTotal  *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	FetchRecordsTotal *prometheus.CounterVec
	FetchErrorsTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers the search metrics on the given
// registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fedsearch_searches_total",
				Help: "Total number of search invocations by outcome",
			},
			[]string{"outcome"},
		),
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fedsearch_search_duration_seconds",
				Help:    "Search invocation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fedsearch_cache_hits_total",
				Help: "Total number of response cache hits",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fedsearch_cache_misses_total",
				Help: "Total number of response cache misses",
			},
		),
		FetchRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fedsearch_fetch_records_total",
				Help: "Total number of remote records returned by module",
			},
			[]string{"module"},
		),
		FetchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fedsearch_fetch_errors_total",
				Help: "Total number of failed module fetches by module",
			},
			[]string{"module"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.SearchesTotal,
			m.SearchDuration,
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.FetchRecordsTotal,
			m.FetchErrorsTotal,
		)
	}

	return m
}

// Search outcomes reported to metrics.
const (
	outcomeCacheHit = "cache_hit"
	outcomeFinal    = "final"
	outcomeAborted  = "aborted"
	outcomeFailed   = "failed"
)

func (m *Metrics) recordSearch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.WithLabelValues(outcome).Observe(seconds)
}

func (m *Metrics) recordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) recordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) recordFetch(module Module, records int) {
	if m == nil {
		return
	}
	m.FetchRecordsTotal.WithLabelValues(string(module)).Add(float64(records))
}

func (m *Metrics) recordFetchError(module Module) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(string(module)).Inc()
}
