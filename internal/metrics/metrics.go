// Package metrics exposes Prometheus collectors for a report run.
//
// A run is a short-lived batch job, so collectors live on a private registry
// that is pushed to a Pushgateway at the end of the run instead of being
// scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/JakeFAU/wanikani-report/internal/profile"
)

// Run outcome labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder holds the collectors for one run.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	knownSubjects      *prometheus.GaugeVec
	srsStageTotal      *prometheus.GaugeVec
	lastSuccessSeconds prometheus.Gauge
}

// NewRecorder registers the run collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wkreport_runs_total",
				Help: "Total number of report runs, labeled by outcome.",
			},
			[]string{"status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wkreport_stage_duration_seconds",
				Help:    "Duration of each pipeline stage.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"stage"},
		),
		knownSubjects: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wkreport_known_subjects",
				Help: "Subjects past Apprentice, labeled by category.",
			},
			[]string{"category"},
		),
		srsStageTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wkreport_srs_stage_total",
				Help: "Subjects currently in each SRS stage.",
			},
			[]string{"stage"},
		),
		lastSuccessSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wkreport_last_success_timestamp_seconds",
				Help: "Unix time of the last run that delivered a report.",
			},
		),
	}
	r.registry.MustRegister(r.runsTotal, r.stageDuration, r.knownSubjects, r.srsStageTotal, r.lastSuccessSeconds)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStage records how long a pipeline stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveStats records the extracted profile figures.
func (r *Recorder) ObserveStats(stats profile.Stats) {
	r.knownSubjects.WithLabelValues("kanji").Set(float64(stats.Progress.Kanji.Known))
	r.knownSubjects.WithLabelValues("vocabulary").Set(float64(stats.Progress.Vocabulary.Known))
	for _, st := range stats.SRSStages {
		r.srsStageTotal.WithLabelValues(st.Title).Set(float64(st.Total))
	}
}

// ObserveRun increments the run counter; on success it also stamps now.
func (r *Recorder) ObserveRun(status string, now time.Time) {
	r.runsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		r.lastSuccessSeconds.Set(float64(now.Unix()))
	}
}

// Push sends the registry to a Pushgateway, grouped by profile username.
func (r *Recorder) Push(ctx context.Context, gatewayURL, job, username string) error {
	pusher := push.New(gatewayURL, job).
		Gatherer(r.registry).
		Grouping("username", username)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
