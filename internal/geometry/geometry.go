// Package geometry provides the landmark measurements used by the control pipeline:
// Euclidean distance and the eye aspect ratio (EAR).
package geometry

import (
	"errors"
	"math"
)

// EyePoints is the number of landmarks that describe one eye.
const EyePoints = 6

// Eye landmark positions within an EyeSet.
const (
	EyeOuter  = 0 // outer corner
	EyeUpper1 = 1 // upper lid, outer side
	EyeUpper2 = 2 // upper lid, inner side
	EyeInner  = 3 // inner corner
	EyeLower2 = 4 // lower lid, inner side
	EyeLower1 = 5 // lower lid, outer side
)

// degenerateEpsilon is the eye width below which the EAR is undefined.
const degenerateEpsilon = 1e-12

// ErrDegenerateEye is returned when the outer and inner eye corners coincide,
// which leaves the eye aspect ratio undefined.
var ErrDegenerateEye = errors.New("degenerate eye landmarks: zero eye width")

// Point is a 2D landmark coordinate in normalized image space ([0,1]x[0,1]).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EyeSet holds the six landmarks of one eye in anatomical order:
// outer corner, two upper-lid points, inner corner, two lower-lid points.
type EyeSet [EyePoints]Point

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// EyeAspectRatio computes (|p1-p5| + |p2-p4|) / (2 * |p0-p3|).
//
// A closed eye yields a value near zero; an open eye is typically 0.25-0.35.
// When the eye width is zero the ratio is undefined and EyeAspectRatio
// returns 0 together with ErrDegenerateEye.
func EyeAspectRatio(eye EyeSet) (float64, error) {
	width := Distance(eye[EyeOuter], eye[EyeInner])
	if width < degenerateEpsilon {
		return 0, ErrDegenerateEye
	}

	vertical1 := Distance(eye[EyeUpper1], eye[EyeLower1])
	vertical2 := Distance(eye[EyeUpper2], eye[EyeLower2])

	return (vertical1 + vertical2) / (2 * width), nil
}

// AverageEAR returns the mean eye aspect ratio of both eyes.
// If either eye is degenerate the error is returned and the average is 0.
func AverageEAR(left, right EyeSet) (float64, error) {
	l, err := EyeAspectRatio(left)
	if err != nil {
		return 0, err
	}
	r, err := EyeAspectRatio(right)
	if err != nil {
		return 0, err
	}
	return (l + r) / 2, nil
}

// Translate returns the eye set shifted by (dx, dy).
func (e EyeSet) Translate(dx, dy float64) EyeSet {
	var out EyeSet
	for i, p := range e {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}
