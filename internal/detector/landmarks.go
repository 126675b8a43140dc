// Package detector provides the landmark inference interface and types for face and hand tracking.
package detector

import (
	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/gesture"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FaceMeshPoints is the minimum number of points in a MediaPipe face mesh.
// Refined meshes carry 478 points (iris landmarks appended).
const FaceMeshPoints = 468

// Face mesh indices of the six eye landmarks, in geometry.EyeSet order:
// outer corner, upper lid (2), inner corner, lower lid (2).
var (
	LeftEyeIndices  = [geometry.EyePoints]int{33, 160, 158, 133, 153, 144}
	RightEyeIndices = [geometry.EyePoints]int{362, 387, 385, 263, 373, 380}
)

// Point3D represents a normalized landmark with x, y in [0,1] image space
// and a relative depth z.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY drops the depth component.
func (p Point3D) XY() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Observation extracts the fingertips used for pinch control.
func (h *HandLandmarks) Observation() gesture.Observation {
	return gesture.Observation{
		Handedness: gesture.Handedness(h.Handedness),
		ThumbTip:   h.Points[ThumbTip].XY(),
		IndexTip:   h.Points[IndexTip].XY(),
	}
}

// FaceLandmarks is a face mesh of at least FaceMeshPoints points.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// Valid reports whether the mesh is complete enough to locate both eyes.
func (f *FaceLandmarks) Valid() bool {
	return f != nil && len(f.Points) >= FaceMeshPoints
}

// Eyes returns the left and right eye landmark sets.
// The mesh must be Valid.
func (f *FaceLandmarks) Eyes() (left, right geometry.EyeSet) {
	for i := 0; i < geometry.EyePoints; i++ {
		left[i] = f.Points[LeftEyeIndices[i]].XY()
		right[i] = f.Points[RightEyeIndices[i]].XY()
	}
	return left, right
}

// Result holds everything the detector found in one frame.
type Result struct {
	Face  *FaceLandmarks  `json:"face,omitempty"`
	Hands []HandLandmarks `json:"hands"`
}
