package snapshot

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks refresher activity.
type Metrics struct {
	registry *prometheus.Registry

	Refreshes   *prometheus.CounterVec
	Duration    prometheus.Histogram
	Pools       prometheus.Gauge
	BlockNumber prometheus.Gauge
}

// NewMetrics registers the refresher collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoter_snapshot_refreshes_total",
				Help: "Snapshot refreshes by result",
			},
			[]string{"result"}, // ok, error
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quoter_snapshot_refresh_duration_seconds",
				Help:    "Time spent fetching and saving a snapshot",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		Pools: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quoter_snapshot_pools",
				Help: "Pools in the last saved snapshot",
			},
		),
		BlockNumber: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quoter_snapshot_block_number",
				Help: "Block number of the last saved snapshot",
			},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.Refreshes, m.Duration, m.Pools, m.BlockNumber)
	return m
}

func (m *Metrics) observe(started time.Time, pools int, block uint64, err error) {
	if m == nil {
		return
	}
	m.Duration.Observe(time.Since(started).Seconds())
	if err != nil {
		m.Refreshes.WithLabelValues("error").Inc()
		return
	}
	m.Refreshes.WithLabelValues("ok").Inc()
	m.Pools.Set(float64(pools))
	m.BlockNumber.Set(float64(block))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MetricsServer exposes Metrics over HTTP.
type MetricsServer struct {
	srv *http.Server
}

// NewMetricsServer returns nil when addr is empty.
func NewMetricsServer(addr string, m *Metrics) *MetricsServer {
	if addr == "" || m == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves metrics until shutdown; returns nil when disabled.
func (s *MetricsServer) Start() error {
	if s == nil {
		return nil
	}
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server; no-op when disabled.
func (s *MetricsServer) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
