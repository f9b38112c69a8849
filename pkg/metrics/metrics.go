package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RunsTotal counts pipeline runs by outcome (ok, extraction_failed, canceled).
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "menuviz",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total number of menu visualization runs, labeled by result.",
	}, []string{"result"})

	// ExtractionDurationSeconds is the time spent in the menu extraction call.
	ExtractionDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "menuviz",
		Subsystem: "extractor",
		Name:      "duration_seconds",
		Help:      "Time to extract dishes from a menu image.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"result"})

	// DishesExtracted is the number of dishes kept per successful extraction.
	DishesExtracted = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "menuviz",
		Subsystem: "extractor",
		Name:      "dishes",
		Help:      "Number of dishes kept after normalization.",
		Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	})

	// PhotosTotal counts per-dish photo generations by outcome.
	PhotosTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "menuviz",
		Subsystem: "generator",
		Name:      "photos_total",
		Help:      "Total number of dish photo generations, labeled by result.",
	}, []string{"result"})

	// PhotoDurationSeconds is the time spent generating one dish photo.
	PhotoDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "menuviz",
		Subsystem: "generator",
		Name:      "duration_seconds",
		Help:      "Time to generate one dish photo.",
		Buckets:   []float64{1, 2, 5, 10, 20, 40, 80},
	})

	// ActiveSessions is the number of sessions currently held in memory.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "menuviz",
		Subsystem: "session",
		Name:      "active",
		Help:      "Number of sessions held in memory.",
	})
)

// Register registers the collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RunsTotal,
			ExtractionDurationSeconds,
			DishesExtracted,
			PhotosTotal,
			PhotoDurationSeconds,
			ActiveSessions,
		)
	})
}
