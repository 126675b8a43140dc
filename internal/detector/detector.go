package detector

import "gocv.io/x/gocv"

// Detector defines the interface for landmark inference implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the face mesh (if any) and
	// detected hands. A frame without a face yields a nil Face.
	Detect(frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark inference.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Python is the interpreter used for the MediaPipe service.
	// Empty means a project virtualenv if found, else python3.
	Python string

	// Script is the path of the MediaPipe service script.
	// Empty means search the standard locations.
	Script string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// capHands drops hands beyond max.
func capHands(hands []HandLandmarks, max int) []HandLandmarks {
	if max > 0 && len(hands) > max {
		return hands[:max]
	}
	return hands
}
