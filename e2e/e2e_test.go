package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/blink"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/playback"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

type nopSession struct{}

func (nopSession) Close() error { return nil }

// clock advances 10ms per call.
func clock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(10 * time.Millisecond)
		return t
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	m := metrics.NewManager()
	hub := overlay.NewStreamHub(nil)

	// A server without a pipeline stores the calibration for the next start
	setup := httptest.NewServer(server.New(server.Config{Store: s}))
	t.Run("StoreCalibration", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, setup.URL+"/api/calibrations/volume",
			strings.NewReader(`{"min_distance": 0.0, "max_distance": 0.1}`))
		resp, err := setup.Client().Do(req)
		if err != nil {
			t.Fatalf("PUT calibration error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})
	setup.Close()

	defaults := map[gesture.Channel]gesture.Calibration{
		gesture.ChannelVolume:     gesture.DefaultCalibration(),
		gesture.ChannelBrightness: gesture.DefaultCalibration(),
	}
	calibrations, err := s.Calibrations().Apply(defaults)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if calibrations[gesture.ChannelVolume].MaxDistance != 0.1 {
		t.Fatalf("stored calibration not applied: %+v", calibrations[gesture.ChannelVolume])
	}

	// Script: double blink, then a left pinch at 0.05 and a right pinch at 0.2
	det := detector.NewMockDetector()
	det.Queue(
		&detector.Result{Face: detector.OpenEyesFace()},
		&detector.Result{Face: detector.ClosedEyesFace()},
		&detector.Result{Face: detector.ClosedEyesFace()},
		&detector.Result{Face: detector.OpenEyesFace()},
		&detector.Result{
			Face: detector.OpenEyesFace(),
			Hands: []detector.HandLandmarks{
				detector.PinchLandmarks("Left", 0.05),
				detector.PinchLandmarks("Right", 0.2),
			},
		},
	)
	cam := capture.NewBlankMockCamera(5)
	defer cam.Release()

	opened := 0
	application, err := app.New(app.Config{
		Camera:       cam,
		Detector:     det,
		Blink:        blink.DefaultConfig(),
		Calibrations: calibrations,
		Actuator:     actuator.NewLog(logging.NewNop()),
		Playback: playback.OpenerFunc(func(ctx context.Context) (playback.Session, error) {
			opened++
			return nopSession{}, nil
		}),
		Renderer: overlay.NewMulti(hub),
		Events:   s.Events(),
		Metrics:  m,
		Now:      clock(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	srv := server.New(server.Config{
		Store:       s,
		Status:      application,
		Calibration: application.Calibration,
		Stream:      hub,
		Metrics:     m,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	if err := application.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	t.Run("Status", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/status")
		if err != nil {
			t.Fatalf("GET status error = %v", err)
		}
		defer resp.Body.Close()

		var st app.Status
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if st.Volume != 50 {
			t.Errorf("volume = %d, want 50 with the stored calibration", st.Volume)
		}
		if st.Brightness != 100 {
			t.Errorf("brightness = %d, want 100", st.Brightness)
		}
		if st.DoubleBlinks != 1 || st.Frames != 5 {
			t.Errorf("double blinks/frames = %d/%d", st.DoubleBlinks, st.Frames)
		}
		if st.Running || st.Playback {
			t.Error("pipeline should be stopped with playback closed")
		}
	})

	t.Run("PlaybackOpenedOnce", func(t *testing.T) {
		if opened != 1 {
			t.Errorf("playback opened %d times, want 1", opened)
		}
	})

	t.Run("Events", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/events?limit=10")
		if err != nil {
			t.Fatalf("GET events error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Events []store.Event `json:"events"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode events: %v", err)
		}
		kinds := map[store.EventKind]int{}
		for _, e := range body.Events {
			kinds[e.Kind]++
		}
		if kinds[store.EventDoubleBlink] != 1 || kinds[store.EventPlaybackOpen] != 1 {
			t.Errorf("events = %v", kinds)
		}
	})

	t.Run("ActiveCalibration", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/calibrations")
		if err != nil {
			t.Fatalf("GET calibrations error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Active map[string]gesture.Calibration `json:"active"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode calibrations: %v", err)
		}
		if body.Active["volume"].MaxDistance != 0.1 {
			t.Errorf("active volume calibration = %+v", body.Active["volume"])
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/metrics")
		if err != nil {
			t.Fatalf("GET metrics error = %v", err)
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		for _, want := range []string{
			"mudra_pipeline_double_blinks_total 1",
			`mudra_pipeline_control_level{channel="volume"} 50`,
			"mudra_pipeline_frames_total 5",
		} {
			if !strings.Contains(string(data), want) {
				t.Errorf("metrics missing %q", want)
			}
		}
	})
}
