package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest pipeline.
type Metrics struct {
	PointsDiscovered prometheus.Counter
	PointsKept       prometheus.Counter

	VolumeQueries *prometheus.CounterVec // labels: outcome={success,skipped,error}
	VolumeRows    prometheus.Counter
	RainQueries   *prometheus.CounterVec // labels: outcome={success,empty,error}

	PartitionWrites *prometheus.CounterVec // labels: dataset={points,volumes,rain}
	StageDuration   *prometheus.HistogramVec
	IngestRunning   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PointsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traffic_ingest",
			Name:      "points_discovered_total",
			Help:      "Registration points returned by the traffic API before filtering.",
		}),
		PointsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traffic_ingest",
			Name:      "points_kept_total",
			Help:      "Registration points remaining after the bounding-box filter.",
		}),
		VolumeQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_ingest",
			Name:      "volume_queries_total",
			Help:      "Per-point volume queries by outcome.",
		}, []string{"outcome"}),
		VolumeRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traffic_ingest",
			Name:      "volume_rows_total",
			Help:      "Day-bucket rows merged into volume partitions.",
		}),
		RainQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_ingest",
			Name:      "rain_queries_total",
			Help:      "Per-point per-day precipitation lookups by outcome.",
		}, []string{"outcome"}),
		PartitionWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_ingest",
			Name:      "partition_writes_total",
			Help:      "Partitions written per dataset.",
		}, []string{"dataset"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "traffic_ingest",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "traffic_ingest",
			Name:      "running",
			Help:      "1 while an ingest run is active, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.PointsDiscovered,
		m.PointsKept,
		m.VolumeQueries,
		m.VolumeRows,
		m.RainQueries,
		m.PartitionWrites,
		m.StageDuration,
		m.IngestRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PointsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "traffic_ingest", Name: "points_discovered_total"}),
		PointsKept:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "traffic_ingest", Name: "points_kept_total"}),
		VolumeQueries:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "traffic_ingest", Name: "volume_queries_total"}, []string{"outcome"}),
		VolumeRows:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "traffic_ingest", Name: "volume_rows_total"}),
		RainQueries:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "traffic_ingest", Name: "rain_queries_total"}, []string{"outcome"}),
		PartitionWrites:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "traffic_ingest", Name: "partition_writes_total"}, []string{"dataset"}),
		StageDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "traffic_ingest", Name: "stage_duration_seconds"}, []string{"stage"}),
		IngestRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "traffic_ingest", Name: "running"}),
	}
}
