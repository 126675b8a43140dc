// Package gesture maps hand geometry to bounded control levels.
//
// The thumb-to-index fingertip distance of a hand is mapped linearly onto a
// 0-100 percentage using a per-channel calibration range. Which channel a
// hand drives is decided by its handedness: the left hand controls volume and
// the right hand controls brightness.
package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/mudra/internal/geometry"
)

// Default calibration range, in normalized image units.
const (
	DefaultMinDistance = 0.02
	DefaultMaxDistance = 0.2
)

// ErrInvalidCalibration is returned when a calibration range is empty or inverted.
var ErrInvalidCalibration = errors.New("invalid calibration")

// ErrUnknownChannel is returned by ParseChannel for an unrecognized name.
var ErrUnknownChannel = errors.New("unknown channel")

// Channel names a continuous control output.
type Channel string

const (
	// ChannelVolume is the audio output volume.
	ChannelVolume Channel = "volume"
	// ChannelBrightness is the display brightness.
	ChannelBrightness Channel = "brightness"
)

// Channels lists every control channel in display order.
var Channels = []Channel{ChannelVolume, ChannelBrightness}

// ParseChannel converts a channel name into a Channel.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelVolume, ChannelBrightness:
		return Channel(s), nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownChannel, s)
}

// Handedness classifies a detected hand.
type Handedness string

const (
	Left  Handedness = "Left"
	Right Handedness = "Right"
)

// Observation is one detected hand in one frame.
type Observation struct {
	Handedness Handedness
	ThumbTip   geometry.Point
	IndexTip   geometry.Point
}

// Pinch returns the thumb-to-index fingertip distance.
func (o Observation) Pinch() float64 {
	return geometry.Distance(o.ThumbTip, o.IndexTip)
}

// Calibration is the fingertip distance range mapped onto 0-100%.
type Calibration struct {
	MinDistance float64 `json:"min_distance"`
	MaxDistance float64 `json:"max_distance"`
}

// DefaultCalibration returns the standard calibration range.
func DefaultCalibration() Calibration {
	return Calibration{MinDistance: DefaultMinDistance, MaxDistance: DefaultMaxDistance}
}

// Validate checks that the range is non-empty and finite.
func (c Calibration) Validate() error {
	if math.IsNaN(c.MinDistance) || math.IsNaN(c.MaxDistance) ||
		math.IsInf(c.MinDistance, 0) || math.IsInf(c.MaxDistance, 0) {
		return fmt.Errorf("%w: bounds must be finite", ErrInvalidCalibration)
	}
	if c.MaxDistance <= c.MinDistance {
		return fmt.Errorf("%w: max distance %g must be greater than min distance %g",
			ErrInvalidCalibration, c.MaxDistance, c.MinDistance)
	}
	return nil
}

// MapDistanceToPercent maps distance linearly from [minDist, maxDist] onto
// [0, 100], clamping values outside the range and truncating to an integer.
// It returns ErrInvalidCalibration when maxDist <= minDist.
func MapDistanceToPercent(distance, minDist, maxDist float64) (int, error) {
	cal := Calibration{MinDistance: minDist, MaxDistance: maxDist}
	if err := cal.Validate(); err != nil {
		return 0, err
	}
	return cal.percent(distance), nil
}

// percent assumes a validated calibration.
func (c Calibration) percent(distance float64) int {
	if math.IsNaN(distance) {
		return 0
	}

	raw := 100 * (distance - c.MinDistance) / (c.MaxDistance - c.MinDistance)
	raw = math.Max(0, math.Min(100, raw))

	return int(raw)
}

// Reading is the result of mapping one hand observation.
type Reading struct {
	Channel  Channel
	Distance float64
	Percent  int
}

// Mapper routes hand observations to channels and maps them to percentages.
// It is immutable after construction.
type Mapper struct {
	calibrations map[Channel]Calibration
	routes       map[Handedness]Channel
}

// NewMapper builds a Mapper from per-channel calibrations. Every channel in
// Channels must be present and valid; misconfiguration is reported here so
// that per-frame mapping never fails.
func NewMapper(calibrations map[Channel]Calibration) (*Mapper, error) {
	cals := make(map[Channel]Calibration, len(Channels))
	for _, ch := range Channels {
		cal, ok := calibrations[ch]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s calibration", ErrInvalidCalibration, ch)
		}
		if err := cal.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", ch, err)
		}
		cals[ch] = cal
	}

	return &Mapper{
		calibrations: cals,
		routes: map[Handedness]Channel{
			Left:  ChannelVolume,
			Right: ChannelBrightness,
		},
	}, nil
}

// ChannelFor returns the channel driven by the given hand.
func (m *Mapper) ChannelFor(h Handedness) (Channel, bool) {
	ch, ok := m.routes[h]
	return ch, ok
}

// Calibration returns the calibration of a channel.
func (m *Mapper) Calibration(ch Channel) Calibration {
	return m.calibrations[ch]
}

// Percent maps a fingertip distance on the given channel.
func (m *Mapper) Percent(ch Channel, distance float64) int {
	return m.calibrations[ch].percent(distance)
}

// Map converts a hand observation into a channel reading.
// It returns false for hands with unknown handedness.
func (m *Mapper) Map(obs Observation) (Reading, bool) {
	ch, ok := m.ChannelFor(obs.Handedness)
	if !ok {
		return Reading{}, false
	}

	d := obs.Pinch()
	return Reading{
		Channel:  ch,
		Distance: d,
		Percent:  m.Percent(ch, d),
	}, true
}
