package app

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/store"
)

// runPipeline is the frame loop. One iteration per camera frame:
//  1. Poll the stop conditions and drain hotplug notifications
//  2. Read a frame; a failed read skips the frame
//  3. Run landmark inference; a failed inference skips the frame
//  4. Feed the eye aspect ratio to the debouncer and toggle playback on a
//     double blink
//  5. Map each hand to its channel and dispatch changed levels
//  6. Render the overlay
func (a *App) runPipeline(ctx context.Context) error {
	for {
		if a.stopRequested(ctx) {
			return nil
		}
		a.drainHotplug()

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				a.logger.Info("end of stream")
				return nil
			}
			a.readFailures++
			a.skip(metrics.SkipRead)
			a.limiter.Warn(a.logger, "read frame", err, "failures", a.readFailures)
			a.wait(ctx, ReadRetryDelay)
			continue
		}

		a.readFailures = 0
		a.processFrame(ctx, frame)
		frame.Close()
	}
}

func (a *App) processFrame(ctx context.Context, frame *gocv.Mat) {
	start := time.Now()
	ann := a.annotations()

	if !a.IsEnabled() {
		a.debouncer.Reset()
		a.skip(metrics.SkipPaused)
		ann.Paused = true
		a.renderer.Render(frame, ann)
		return
	}

	res, err := a.detector.Detect(frame)
	if err != nil {
		a.skip(metrics.SkipInference)
		a.limiter.Warn(a.logger, "detect landmarks", err)
		a.renderer.Render(frame, ann)
		return
	}

	a.processResult(ctx, res, a.now(), &ann)
	a.renderer.Render(frame, ann)

	a.metrics.FrameProcessed(time.Since(start))
	a.updateStatus(func(s *Status) { s.Frames++ })
}

// processResult applies one frame's landmarks: blink detection first, then
// hand control. It fills ann with what was observed.
func (a *App) processResult(ctx context.Context, res *detector.Result, now time.Time, ann *overlay.Annotations) {
	if res == nil {
		res = &detector.Result{}
	}

	face := res.Face.Valid()
	var ear float64
	var hasEAR bool
	if face {
		left, right := res.Face.Eyes()
		ann.Eyes = []geometry.EyeSet{left, right}

		avg, err := geometry.AverageEAR(left, right)
		if err != nil {
			// Degenerate mesh: the blink state is left as it was
			a.limiter.Warn(a.logger, "eye aspect ratio", err)
		} else {
			ear, hasEAR = avg, true
			ann.EAR, ann.HasEAR = avg, true
			a.metrics.ObserveEAR(avg)
			if a.debouncer.Feed(avg, now) {
				a.onDoubleBlink(ctx)
			}
		}
	}

	hands := res.Hands
	if len(hands) > MaxHands {
		hands = hands[:MaxHands]
	}
	for i := range hands {
		reading, ok := a.mapper.Map(hands[i].Observation())
		if !ok {
			continue
		}
		a.dispatch(ctx, reading)

		obs := hands[i].Observation()
		ann.Pinches = append(ann.Pinches, overlay.Pinch{
			Channel: reading.Channel,
			Thumb:   obs.ThumbTip,
			Index:   obs.IndexTip,
			Percent: reading.Percent,
		})
	}

	st := a.Status()
	ann.Volume, ann.Brightness = st.Volume, st.Brightness
	ann.Playback = a.toggle.Active()

	a.updateStatus(func(s *Status) {
		s.FaceVisible = face
		if hasEAR {
			s.EAR = ear
		}
		s.Hands = len(hands)
	})
}

// dispatch sends a reading to the actuator when it differs from the last
// level that reached the actuator. A failed call leaves the level unchanged
// so the next observation retries it.
func (a *App) dispatch(ctx context.Context, r gesture.Reading) {
	if last, ok := a.levels[r.Channel]; ok && last == r.Percent {
		return
	}

	if err := actuator.Set(ctx, a.actuator, r.Channel, r.Percent); err != nil {
		a.metrics.ActuatorError(string(r.Channel))
		key := "actuator:" + string(r.Channel)
		if a.limiter.Allow(key) {
			a.logger.Warn("set level", logging.Err(err), "channel", r.Channel, "percent", r.Percent)
			a.record(&store.Event{
				Kind:    store.EventActuatorError,
				Channel: string(r.Channel),
				Value:   float64(r.Percent),
				Detail:  err.Error(),
			})
		}
		return
	}

	a.levels[r.Channel] = r.Percent
	a.metrics.SetLevel(string(r.Channel), r.Percent)
	a.updateStatus(func(s *Status) {
		switch r.Channel {
		case gesture.ChannelVolume:
			s.Volume = r.Percent
		case gesture.ChannelBrightness:
			s.Brightness = r.Percent
		}
	})
	a.logger.Debug("level set", "channel", r.Channel, "percent", r.Percent, "distance", r.Distance)
}

// onDoubleBlink flips the playback session.
func (a *App) onDoubleBlink(ctx context.Context) {
	a.metrics.DoubleBlink()
	a.updateStatus(func(s *Status) { s.DoubleBlinks++ })
	a.record(&store.Event{Kind: store.EventDoubleBlink})

	wasActive := a.toggle.Active()
	active, err := a.toggle.Toggle(ctx)
	a.metrics.SetPlaybackActive(active)
	a.updateStatus(func(s *Status) { s.Playback = active })

	if err != nil {
		a.logger.Warn("toggle playback", logging.Err(err), "was_active", wasActive)
		a.record(&store.Event{Kind: store.EventPlaybackError, Detail: err.Error()})
		return
	}

	kind := store.EventPlaybackClose
	if active {
		kind = store.EventPlaybackOpen
	}
	a.logger.Info("double blink", "playback", active)
	a.record(&store.Event{Kind: kind})
}

// drainHotplug handles every pending hotplug notification without blocking.
// An attached device reopens the camera when it is not delivering frames.
func (a *App) drainHotplug() {
	if a.hotplug == nil {
		return
	}
	events := a.hotplug.Events()
	if events == nil {
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				a.hotplug = nil
				return
			}
			a.handleHotplug(ev)
		default:
			return
		}
	}
}

func (a *App) handleHotplug(ev capture.HotplugEvent) {
	a.logger.Info("camera hotplug", "action", ev.Action, "device", ev.Device)

	switch ev.Action {
	case capture.HotplugRemove:
		a.updateStatus(func(s *Status) { s.CameraOpen = false })
	case capture.HotplugAdd:
		if a.readFailures == 0 && a.Status().CameraOpen {
			return
		}
		if err := a.camera.Close(); err != nil {
			a.logger.Debug("close camera before reopen", logging.Err(err))
		}
		if err := a.camera.Open(); err != nil {
			a.logger.Warn("reopen camera", logging.Err(err), "device", ev.Device)
			a.updateStatus(func(s *Status) { s.CameraOpen = false })
			return
		}
		a.updateStatus(func(s *Status) { s.CameraOpen = true })
	}
}

func (a *App) skip(reason string) {
	a.metrics.FrameSkipped(reason)
	a.updateStatus(func(s *Status) {
		s.Frames++
		s.Skipped++
	})
}

func (a *App) record(e *store.Event) {
	if a.events == nil {
		return
	}
	if err := a.events.Record(e); err != nil {
		a.limiter.Warn(a.logger, "record event", err, "kind", e.Kind)
	}
}

func (a *App) annotations() overlay.Annotations {
	st := a.Status()
	ann := overlay.NewAnnotations()
	ann.Volume, ann.Brightness = st.Volume, st.Brightness
	ann.Playback = st.Playback
	return ann
}
