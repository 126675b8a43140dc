package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func serve(h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCalibrationHandler_ListEmpty(t *testing.T) {
	s := newTestStore(t)
	handler := NewCalibrationHandler(s, func(ch gesture.Channel) gesture.Calibration {
		return gesture.DefaultCalibration()
	})

	rec := serve(handler, http.MethodGet, "/api/calibrations", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listCalibrationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Calibrations == nil || len(response.Calibrations) != 0 {
		t.Errorf("expected empty calibrations array, got %v", response.Calibrations)
	}
	if response.Active[gesture.ChannelVolume] != gesture.DefaultCalibration() {
		t.Errorf("active volume calibration = %+v", response.Active[gesture.ChannelVolume])
	}
}

func TestCalibrationHandler_PutAndGet(t *testing.T) {
	s := newTestStore(t)
	handler := NewCalibrationHandler(s, nil)

	rec := serve(handler, http.MethodPut, "/api/calibrations/volume",
		[]byte(`{"min_distance": 0.03, "max_distance": 0.25}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, err := s.Calibrations().Get(gesture.ChannelVolume)
	if err != nil {
		t.Fatalf("calibration not persisted: %v", err)
	}
	if stored.MinDistance != 0.03 || stored.MaxDistance != 0.25 {
		t.Errorf("stored = %+v", stored)
	}

	rec = serve(handler, http.MethodGet, "/api/calibrations/volume", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var got calibrationResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Channel != "volume" || got.MaxDistance != 0.25 {
		t.Errorf("GET returned %+v", got)
	}

	rec = serve(handler, http.MethodGet, "/api/calibrations", nil)
	var list listCalibrationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list.Calibrations) != 1 {
		t.Errorf("expected 1 calibration, got %d", len(list.Calibrations))
	}
	if list.Active != nil {
		t.Error("active should be omitted without a pipeline")
	}
}

func TestCalibrationHandler_PutRejectsBadInput(t *testing.T) {
	s := newTestStore(t)
	handler := NewCalibrationHandler(s, nil)

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"inverted range", "/api/calibrations/brightness", `{"min_distance": 0.2, "max_distance": 0.1}`, http.StatusBadRequest},
		{"empty range", "/api/calibrations/brightness", `{"min_distance": 0.1, "max_distance": 0.1}`, http.StatusBadRequest},
		{"missing bound", "/api/calibrations/brightness", `{"min_distance": 0.1}`, http.StatusBadRequest},
		{"invalid json", "/api/calibrations/brightness", `{`, http.StatusBadRequest},
		{"unknown channel", "/api/calibrations/contrast", `{"min_distance": 0.02, "max_distance": 0.2}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(handler, http.MethodPut, tt.target, []byte(tt.body))
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}

	profiles, err := s.Calibrations().List()
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 0 {
		t.Errorf("rejected requests persisted %d profiles", len(profiles))
	}
}

func TestCalibrationHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewCalibrationHandler(s, nil)

	if err := s.Calibrations().Upsert(&store.Calibration{
		Channel: gesture.ChannelBrightness, MinDistance: 0.05, MaxDistance: 0.3,
	}); err != nil {
		t.Fatal(err)
	}

	rec := serve(handler, http.MethodDelete, "/api/calibrations/brightness", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	rec = serve(handler, http.MethodDelete, "/api/calibrations/brightness", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	rec = serve(handler, http.MethodGet, "/api/calibrations/brightness", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCalibrationHandler_MethodNotAllowed(t *testing.T) {
	handler := NewCalibrationHandler(newTestStore(t), nil)

	if rec := serve(handler, http.MethodPost, "/api/calibrations", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST collection: got %d", rec.Code)
	}
	if rec := serve(handler, http.MethodPatch, "/api/calibrations/volume", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH item: got %d", rec.Code)
	}
}

func TestEventHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewEventHandler(s)

	base := time.Now().Add(-time.Minute)
	for i, kind := range []store.EventKind{store.EventDoubleBlink, store.EventPlaybackOpen, store.EventDoubleBlink} {
		if err := s.Events().Record(&store.Event{Kind: kind, CreatedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatal(err)
		}
	}

	rec := serve(handler, http.MethodGet, "/api/events?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listEventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(response.Events))
	}
	if response.Events[0].Kind != store.EventDoubleBlink || response.Events[1].Kind != store.EventPlaybackOpen {
		t.Errorf("events not newest first: %s, %s", response.Events[0].Kind, response.Events[1].Kind)
	}
}

func TestEventHandler_EmptyAndInvalid(t *testing.T) {
	handler := NewEventHandler(newTestStore(t))

	rec := serve(handler, http.MethodGet, "/api/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body := rec.Body.String(); body != "{\"events\":[]}\n" {
		t.Errorf("empty list body = %q", body)
	}

	for _, limit := range []string{"0", "-3", "ten"} {
		rec := serve(handler, http.MethodGet, "/api/events?limit="+limit, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected status %d, got %d", limit, http.StatusBadRequest, rec.Code)
		}
	}

	if rec := serve(handler, http.MethodPost, "/api/events", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: got %d", rec.Code)
	}
}
