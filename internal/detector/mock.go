package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// Queued results are returned one per Detect call; once the queue is
// drained the fallback result is repeated.
type MockDetector struct {
	mu       sync.Mutex
	queue    []*Result
	fallback *Result
	err      error
	calls    int
	closed   bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// Queue appends results to be returned by subsequent Detect calls.
func (m *MockDetector) Queue(results ...*Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, results...)
}

// SetResult sets the result returned once the queue is empty.
func (m *MockDetector) SetResult(r *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = r
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued result, the fallback, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		r := m.queue[0]
		m.queue = m.queue[1:]
		return r, nil
	}
	if m.fallback != nil {
		return m.fallback, nil
	}
	return &Result{}, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// FaceWithEAR returns a face mesh whose eyes both have the given aspect ratio.
// Every eye is 0.1 wide, so the lid gap is ear*0.1.
func FaceWithEAR(ear float64) *FaceLandmarks {
	face := &FaceLandmarks{Points: make([]Point3D, FaceMeshPoints)}
	for i := range face.Points {
		face.Points[i] = Point3D{X: 0.5, Y: 0.5}
	}

	place := func(idx [6]int, cx float64) {
		const width = 0.1
		gap := ear * width / 2
		face.Points[idx[0]] = Point3D{X: cx - width/2, Y: 0.4}
		face.Points[idx[1]] = Point3D{X: cx - width/6, Y: 0.4 - gap}
		face.Points[idx[2]] = Point3D{X: cx + width/6, Y: 0.4 - gap}
		face.Points[idx[3]] = Point3D{X: cx + width/2, Y: 0.4}
		face.Points[idx[4]] = Point3D{X: cx + width/6, Y: 0.4 + gap}
		face.Points[idx[5]] = Point3D{X: cx - width/6, Y: 0.4 + gap}
	}
	place(LeftEyeIndices, 0.4)
	place(RightEyeIndices, 0.6)

	return face
}

// OpenEyesFace returns a face with eyes open (EAR 0.3).
func OpenEyesFace() *FaceLandmarks {
	return FaceWithEAR(0.3)
}

// ClosedEyesFace returns a face with eyes nearly shut (EAR 0.1).
func ClosedEyesFace() *FaceLandmarks {
	return FaceWithEAR(0.1)
}

// PinchLandmarks returns a hand of the given handedness whose thumb and
// index fingertips are dist apart horizontally.
func PinchLandmarks(handedness string, dist float64) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: handedness,
		Score:      0.95,
	}

	// Loosely curled hand with the wrist at the bottom
	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}
	for i := ThumbCMC; i < NumLandmarks; i++ {
		landmarks.Points[i] = Point3D{X: 0.5, Y: 0.7 - float64(i)*0.005, Z: -0.01}
	}

	landmarks.Points[ThumbTip] = Point3D{X: 0.5, Y: 0.5, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.5 + dist, Y: 0.5, Z: 0.0}

	return landmarks
}
