// Package app provides the frame orchestrator that drives blink and hand
// gesture control from camera frames.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/blink"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/playback"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline timing constants.
const (
	// ReadRetryDelay is the pause after a failed frame read.
	ReadRetryDelay = 100 * time.Millisecond
	// WarnInterval bounds how often an identical per-frame fault is logged.
	WarnInterval = 5 * time.Second
	// MaxHands is the number of hands processed per frame.
	MaxHands = 2
)

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("missing dependency")

// StopSignal is polled once per frame; true ends the loop.
type StopSignal interface {
	Stopped() bool
}

// HotplugSource delivers camera attach and detach notifications.
type HotplugSource interface {
	Events() <-chan capture.HotplugEvent
}

// EventRecorder persists notable events.
type EventRecorder interface {
	Record(e *store.Event) error
}

// Config holds the collaborators and parameters of an App.
type Config struct {
	// Camera and Detector are required.
	Camera   capture.Camera
	Detector detector.Detector

	Blink        blink.Config
	Calibrations map[gesture.Channel]gesture.Calibration

	// Actuator defaults to a logging controller.
	Actuator actuator.Controller
	// Playback defaults to the system browser.
	Playback playback.Opener
	// Renderer defaults to overlay.Nop.
	Renderer overlay.Renderer

	// Optional collaborators.
	Stop    StopSignal
	Hotplug HotplugSource
	Events  EventRecorder
	Metrics *metrics.Manager
	Logger  *slog.Logger

	// Paused starts the App with processing disabled.
	Paused bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Status is a snapshot of the orchestrator state, safe to read from any
// goroutine.
type Status struct {
	Enabled      bool      `json:"enabled"`
	Running      bool      `json:"running"`
	CameraOpen   bool      `json:"camera_open"`
	Volume       int       `json:"volume"`
	Brightness   int       `json:"brightness"`
	Playback     bool      `json:"playback"`
	FaceVisible  bool      `json:"face_visible"`
	EAR          float64   `json:"ear"`
	Hands        int       `json:"hands"`
	Frames       uint64    `json:"frames"`
	Skipped      uint64    `json:"skipped"`
	DoubleBlinks uint64    `json:"double_blinks"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Level returns the last dispatched level of a channel, or overlay.Unknown.
func (s Status) Level(ch gesture.Channel) int {
	switch ch {
	case gesture.ChannelVolume:
		return s.Volume
	case gesture.ChannelBrightness:
		return s.Brightness
	}
	return overlay.Unknown
}

// App is the frame orchestrator. Run drives a single-threaded loop; the
// status snapshot and the enable switch are the only state shared with
// other goroutines.
type App struct {
	camera    capture.Camera
	detector  detector.Detector
	debouncer *blink.Debouncer
	mapper    *gesture.Mapper
	actuator  actuator.Controller
	toggle    *playback.Toggle
	renderer  overlay.Renderer
	stop      StopSignal
	hotplug   HotplugSource
	events    EventRecorder
	metrics   *metrics.Manager
	logger    *slog.Logger
	limiter   *logging.Limiter
	now       func() time.Time

	// levels holds the last successfully dispatched level per channel.
	// Owned by the loop goroutine.
	levels map[gesture.Channel]int
	// readFailures counts consecutive failed reads. Owned by the loop goroutine.
	readFailures int

	mu     sync.RWMutex
	status Status

	quit        chan struct{}
	quitOnce    sync.Once
	cleanupOnce sync.Once
	cleanupErr  error
}

// New validates cfg and creates an App. An invalid blink configuration or
// calibration is reported here, before any frame is read.
func New(cfg Config) (*App, error) {
	if cfg.Camera == nil {
		return nil, fmt.Errorf("%w: camera", ErrMissingDependency)
	}
	if cfg.Detector == nil {
		return nil, fmt.Errorf("%w: detector", ErrMissingDependency)
	}
	if err := cfg.Blink.Validate(); err != nil {
		return nil, err
	}
	mapper, err := gesture.NewMapper(cfg.Calibrations)
	if err != nil {
		return nil, err
	}

	logger := logging.Component(cfg.Logger, "app")

	act := cfg.Actuator
	if act == nil {
		act = actuator.NewLog(logger)
	}
	opener := cfg.Playback
	if opener == nil {
		opener = playback.NewBrowserOpener("", "", cfg.Logger)
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = overlay.Nop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &App{
		camera:    cfg.Camera,
		detector:  cfg.Detector,
		debouncer: blink.NewDebouncer(cfg.Blink),
		mapper:    mapper,
		actuator:  act,
		toggle:    playback.NewToggle(opener),
		renderer:  renderer,
		stop:      cfg.Stop,
		hotplug:   cfg.Hotplug,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		logger:    logger,
		limiter:   logging.NewLimiter(WarnInterval),
		now:       now,
		levels:    make(map[gesture.Channel]int, len(gesture.Channels)),
		status: Status{
			Enabled:    !cfg.Paused,
			Volume:     overlay.Unknown,
			Brightness: overlay.Unknown,
		},
		quit: make(chan struct{}),
	}, nil
}

// Run opens the camera and processes frames until ctx is canceled, Stop is
// called, the stop signal fires or a finite source ends. The camera, the
// playback session and the detector are released exactly once on return.
// Per-frame faults never end the loop; only a camera that cannot be opened
// at startup is reported as an error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.updateStatus(func(s *Status) {
		s.Running = true
		s.CameraOpen = true
	})
	a.logger.Info("frame loop started", a.calibrationAttrs()...)

	err := a.runPipeline(ctx)

	a.updateStatus(func(s *Status) { s.Running = false })
	a.logger.Info("frame loop stopped")
	return err
}

// Stop asks the loop to exit after the current frame. It is safe to call
// from any goroutine, any number of times.
func (a *App) Stop() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// SetEnabled pauses or resumes processing. While paused frames are still
// read so the camera stays live.
func (a *App) SetEnabled(enabled bool) {
	a.updateStatus(func(s *Status) { s.Enabled = enabled })
	a.logger.Info("processing toggled", "enabled", enabled)
}

// IsEnabled reports whether processing is enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status.Enabled
}

// Status returns a snapshot of the orchestrator state.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// PlaybackActive reports whether a playback session is open.
func (a *App) PlaybackActive() bool {
	return a.toggle.Active()
}

// Calibration returns the calibration in use for a channel.
func (a *App) Calibration(ch gesture.Channel) gesture.Calibration {
	return a.mapper.Calibration(ch)
}

func (a *App) updateStatus(fn func(*Status)) {
	a.mu.Lock()
	fn(&a.status)
	a.status.UpdatedAt = a.now()
	a.mu.Unlock()
}

func (a *App) stopRequested(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-a.quit:
		return true
	default:
	}
	return a.stop != nil && a.stop.Stopped()
}

// wait sleeps for d unless a stop is requested first.
func (a *App) wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-a.quit:
	case <-t.C:
	}
}

func (a *App) cleanup() {
	a.cleanupOnce.Do(func() {
		var errs []error

		if err := a.toggle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close playback: %w", err))
		}
		a.metrics.SetPlaybackActive(false)

		if err := a.camera.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close camera: %w", err))
		}
		if err := a.detector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close detector: %w", err))
		}

		a.updateStatus(func(s *Status) {
			s.CameraOpen = false
			s.Playback = false
		})

		a.cleanupErr = errors.Join(errs...)
		if a.cleanupErr != nil {
			a.logger.Warn("cleanup", logging.Err(a.cleanupErr))
		}
	})
}

// CleanupErr returns the error collected while releasing resources, if any.
func (a *App) CleanupErr() error {
	return a.cleanupErr
}

func (a *App) calibrationAttrs() []any {
	attrs := make([]any, 0, len(gesture.Channels)*2)
	for _, ch := range gesture.Channels {
		cal := a.mapper.Calibration(ch)
		attrs = append(attrs, string(ch), fmt.Sprintf("%g-%g", cal.MinDistance, cal.MaxDistance))
	}
	return attrs
}
