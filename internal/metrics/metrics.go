package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var runStates = []string{"idle", "running", "completed", "aborted"}

// Recorder collects the metrics of a single transcription run on its own
// registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	windows  prometheus.Gauge
	outcomes *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	progress prometheus.Gauge
	state    *prometheus.GaugeVec

	backend string
}

func NewRecorder(backend string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		backend:  backend,
		windows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxchunk_windows",
			Help: "Number of windows the input was segmented into",
		}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxchunk_window_outcomes_total",
			Help: "Recognition outcomes per window",
		}, []string{"backend", "kind"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voxchunk_window_recognition_seconds",
			Help:    "Time spent recognizing a single window",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"backend"}),
		progress: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxchunk_run_progress_ratio",
			Help: "Fraction of windows attempted",
		}),
		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "voxchunk_run_state",
			Help: "Current run state (1 for the active state)",
		}, []string{"state"}),
	}
	r.SetState("idle")
	return r
}

func (r *Recorder) SetWindows(n int) {
	if r == nil {
		return
	}
	r.windows.Set(float64(n))
}

func (r *Recorder) ObserveWindow(kind string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(r.backend, kind).Inc()
	r.latency.WithLabelValues(r.backend).Observe(elapsed.Seconds())
}

func (r *Recorder) SetProgress(fraction float64) {
	if r == nil {
		return
	}
	r.progress.Set(fraction)
}

func (r *Recorder) SetState(state string) {
	if r == nil {
		return
	}
	for _, s := range runStates {
		value := 0.0
		if s == state {
			value = 1
		}
		r.state.WithLabelValues(s).Set(value)
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes the run's metrics in the text exposition format, for
// node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}
