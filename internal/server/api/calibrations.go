package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// ActiveCalibration reports the calibration the running pipeline uses.
type ActiveCalibration func(ch gesture.Channel) gesture.Calibration

// CalibrationHandler serves /api/calibrations. Stored profiles take effect
// on the next start.
type CalibrationHandler struct {
	store  *store.Store
	active ActiveCalibration
}

// NewCalibrationHandler creates a CalibrationHandler. active may be nil.
func NewCalibrationHandler(s *store.Store, active ActiveCalibration) *CalibrationHandler {
	return &CalibrationHandler{store: s, active: active}
}

type calibrationRequest struct {
	MinDistance *float64 `json:"min_distance"`
	MaxDistance *float64 `json:"max_distance"`
}

type calibrationResponse struct {
	Channel     string  `json:"channel"`
	MinDistance float64 `json:"min_distance"`
	MaxDistance float64 `json:"max_distance"`
	UpdatedAt   string  `json:"updated_at"`
}

type listCalibrationsResponse struct {
	Calibrations []calibrationResponse                  `json:"calibrations"`
	Active       map[gesture.Channel]gesture.Calibration `json:"active,omitempty"`
}

func toCalibrationResponse(c *store.Calibration) calibrationResponse {
	return calibrationResponse{
		Channel:     string(c.Channel),
		MinDistance: c.MinDistance,
		MaxDistance: c.MaxDistance,
		UpdatedAt:   c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ServeHTTP routes /api/calibrations and /api/calibrations/{channel}.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/calibrations")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	ch, err := gesture.ParseChannel(path)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, ch)
	case http.MethodPut:
		h.put(w, r, ch)
	case http.MethodDelete:
		h.delete(w, r, ch)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/calibrations.
func (h *CalibrationHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Calibrations().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calibrations")
		return
	}

	response := listCalibrationsResponse{
		Calibrations: make([]calibrationResponse, 0, len(profiles)),
	}
	for _, p := range profiles {
		response.Calibrations = append(response.Calibrations, toCalibrationResponse(p))
	}

	if h.active != nil {
		response.Active = make(map[gesture.Channel]gesture.Calibration, len(gesture.Channels))
		for _, ch := range gesture.Channels {
			response.Active[ch] = h.active(ch)
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/calibrations/{channel}.
func (h *CalibrationHandler) get(w http.ResponseWriter, r *http.Request, ch gesture.Channel) {
	profile, err := h.store.Calibrations().Get(ch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Calibration not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get calibration")
		return
	}

	writeJSON(w, http.StatusOK, toCalibrationResponse(profile))
}

// put handles PUT /api/calibrations/{channel}.
func (h *CalibrationHandler) put(w http.ResponseWriter, r *http.Request, ch gesture.Channel) {
	var req calibrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MinDistance == nil || req.MaxDistance == nil {
		writeError(w, http.StatusBadRequest, "min_distance and max_distance are required")
		return
	}

	profile := &store.Calibration{
		Channel:     ch,
		MinDistance: *req.MinDistance,
		MaxDistance: *req.MaxDistance,
	}
	if err := h.store.Calibrations().Upsert(profile); err != nil {
		if errors.Is(err, gesture.ErrInvalidCalibration) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save calibration")
		return
	}

	writeJSON(w, http.StatusOK, toCalibrationResponse(profile))
}

// delete handles DELETE /api/calibrations/{channel}, restoring the
// configured default on the next start.
func (h *CalibrationHandler) delete(w http.ResponseWriter, r *http.Request, ch gesture.Channel) {
	if err := h.store.Calibrations().Delete(ch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Calibration not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete calibration")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
