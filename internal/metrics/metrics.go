// Package metrics provides Prometheus metrics for the frame pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons for FrameSkipped.
const (
	SkipRead      = "read"
	SkipInference = "inference"
	SkipPaused    = "paused"
)

// Manager owns the pipeline metrics. A nil *Manager is valid and records
// nothing, so callers never need to guard their calls.
type Manager struct {
	namespace    string
	subsystem    string
	frameBuckets []float64
	registry     *prometheus.Registry

	framesTotal    prometheus.Counter
	framesSkipped  *prometheus.CounterVec
	frameSeconds   prometheus.Histogram
	eyeAspectRatio prometheus.Gauge
	doubleBlinks   prometheus.Counter
	controlLevel   *prometheus.GaugeVec
	actuatorErrors *prometheus.CounterVec
	playbackActive prometheus.Gauge
}

// NewManager creates a metrics manager on its own registry, which also
// carries the Go runtime and process collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:    "mudra",
		subsystem:    "pipeline",
		frameBuckets: []float64{.005, .01, .02, .033, .05, .1, .2, .5},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_total",
		Help:      "Frames read from the camera.",
	})

	m.framesSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_skipped_total",
		Help:      "Frames not processed, by reason.",
	}, []string{"reason"})

	m.frameSeconds = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_seconds",
		Help:      "Time spent processing one frame, inference included.",
		Buckets:   m.frameBuckets,
	})

	m.eyeAspectRatio = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eye_aspect_ratio",
		Help:      "Most recent average eye aspect ratio.",
	})

	m.doubleBlinks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "double_blinks_total",
		Help:      "Double-blink triggers detected.",
	})

	m.controlLevel = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "control_level",
		Help:      "Last level dispatched per channel, in percent.",
	}, []string{"channel"})

	m.actuatorErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "actuator_errors_total",
		Help:      "Failed actuator calls per channel.",
	}, []string{"channel"})

	m.playbackActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "playback_active",
		Help:      "1 while a playback session is open.",
	})
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// FrameProcessed counts a processed frame and its duration.
func (m *Manager) FrameProcessed(d time.Duration) {
	if m == nil {
		return
	}
	m.framesTotal.Inc()
	m.frameSeconds.Observe(d.Seconds())
}

// FrameSkipped counts a frame dropped for reason.
func (m *Manager) FrameSkipped(reason string) {
	if m == nil {
		return
	}
	m.framesTotal.Inc()
	m.framesSkipped.WithLabelValues(reason).Inc()
}

// ObserveEAR records the latest eye aspect ratio.
func (m *Manager) ObserveEAR(ear float64) {
	if m == nil {
		return
	}
	m.eyeAspectRatio.Set(ear)
}

// DoubleBlink counts a trigger.
func (m *Manager) DoubleBlink() {
	if m == nil {
		return
	}
	m.doubleBlinks.Inc()
}

// SetLevel records the level dispatched on a channel.
func (m *Manager) SetLevel(channel string, percent int) {
	if m == nil {
		return
	}
	m.controlLevel.WithLabelValues(channel).Set(float64(percent))
}

// ActuatorError counts a failed actuator call.
func (m *Manager) ActuatorError(channel string) {
	if m == nil {
		return
	}
	m.actuatorErrors.WithLabelValues(channel).Inc()
}

// SetPlaybackActive records whether a playback session is open.
func (m *Manager) SetPlaybackActive(active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1
	}
	m.playbackActive.Set(v)
}
