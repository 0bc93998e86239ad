package metrics

import (
	"fmt"
	"time"

	"gachi-analyzer/domain/screen"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects the metrics of one analysis run in its own registry
type Recorder struct {
	registry *prometheus.Registry

	framesSampled   *prometheus.CounterVec
	framesSkipped   prometheus.Counter
	stageDuration   *prometheus.HistogramVec
	activeWorkers   prometheus.Gauge
	eventsCollapsed prometheus.Gauge
	battlesDetected prometheus.Counter
}

// NewRecorder creates a Recorder backed by a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		framesSampled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gachi_frames_sampled_total",
			Help: "Frames decoded and classified, by recognized screen",
		}, []string{"label"}),
		framesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "gachi_frames_skipped_total",
			Help: "Sampled frame indices that could not be decoded",
		}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gachi_stage_duration_seconds",
			Help:    "Duration of analysis stages",
			Buckets: []float64{0.01, 0.1, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"stage"}),
		activeWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gachi_active_workers",
			Help: "Number of sampling workers currently running",
		}),
		eventsCollapsed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gachi_timeline_events",
			Help: "Events in the reconstructed timeline of the last run",
		}),
		battlesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "gachi_battles_detected_total",
			Help: "Battles extracted from the timeline",
		}),
	}
}

// FrameSampled implements video.FrameObserver
func (r *Recorder) FrameSampled(label screen.Label) {
	name := string(label)
	if label == screen.Unknown {
		name = "unknown"
	}
	r.framesSampled.WithLabelValues(name).Inc()
}

// FrameSkipped implements video.FrameObserver
func (r *Recorder) FrameSkipped(int) {
	r.framesSkipped.Inc()
}

// ObserveStage records how long an analysis stage took
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WorkerStarted marks a sampling worker as running
func (r *Recorder) WorkerStarted() {
	r.activeWorkers.Inc()
}

// WorkerFinished marks a sampling worker as done
func (r *Recorder) WorkerFinished() {
	r.activeWorkers.Dec()
}

// RecordResult stores the size of the reconstructed timeline
func (r *Recorder) RecordResult(events, battles int) {
	r.eventsCollapsed.Set(float64(events))
	r.battlesDetected.Add(float64(battles))
}

// WriteTextfile writes all metrics in the Prometheus text format, suitable
// for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
