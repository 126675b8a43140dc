package gesture

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/geometry"
)

func TestMapDistanceToPercent(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     int
	}{
		{name: "at min", distance: 0.02, want: 0},
		{name: "below min", distance: 0.001, want: 0},
		{name: "negative", distance: -1, want: 0},
		{name: "at max", distance: 0.2, want: 100},
		{name: "above max", distance: 0.5, want: 100},
		{name: "quarter", distance: 0.065, want: 25},
		{name: "NaN maps to zero", distance: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapDistanceToPercent(tt.distance, 0.02, 0.2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// Allow one point of slack for truncation of inexact floats
			if got < tt.want-1 || got > tt.want {
				t.Errorf("MapDistanceToPercent(%f) = %d, want %d", tt.distance, got, tt.want)
			}
		})
	}

	t.Run("midpoint is about fifty", func(t *testing.T) {
		got, err := MapDistanceToPercent(0.11, 0.02, 0.2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got < 49 || got > 50 {
			t.Errorf("MapDistanceToPercent(0.11) = %d, want ~50", got)
		}
	})
}

func TestMapDistanceToPercent_Monotonic(t *testing.T) {
	prev := -1
	for i := 0; i <= 300; i++ {
		d := float64(i) / 1000 // 0.000 .. 0.300
		got, err := MapDistanceToPercent(d, 0.02, 0.2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got < 0 || got > 100 {
			t.Fatalf("distance %f: %d out of range", d, got)
		}
		if got < prev {
			t.Fatalf("distance %f: %d decreased from %d", d, got, prev)
		}
		prev = got
	}
}

func TestMapDistanceToPercent_InvalidCalibration(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
	}{
		{name: "equal bounds", min: 0.1, max: 0.1},
		{name: "inverted bounds", min: 0.2, max: 0.02},
		{name: "NaN bound", min: math.NaN(), max: 0.2},
		{name: "infinite bound", min: 0.02, max: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapDistanceToPercent(0.1, tt.min, tt.max)
			if !errors.Is(err, ErrInvalidCalibration) {
				t.Errorf("expected ErrInvalidCalibration, got %v", err)
			}
		})
	}
}

func TestNewMapper(t *testing.T) {
	t.Run("valid calibrations", func(t *testing.T) {
		m, err := NewMapper(map[Channel]Calibration{
			ChannelVolume:     DefaultCalibration(),
			ChannelBrightness: {MinDistance: 0.05, MaxDistance: 0.25},
		})
		if err != nil {
			t.Fatalf("NewMapper() error = %v", err)
		}
		if got := m.Calibration(ChannelBrightness).MaxDistance; got != 0.25 {
			t.Errorf("brightness max = %f, want 0.25", got)
		}
	})

	t.Run("missing channel", func(t *testing.T) {
		_, err := NewMapper(map[Channel]Calibration{ChannelVolume: DefaultCalibration()})
		if !errors.Is(err, ErrInvalidCalibration) {
			t.Errorf("expected ErrInvalidCalibration, got %v", err)
		}
	})

	t.Run("inverted channel", func(t *testing.T) {
		_, err := NewMapper(map[Channel]Calibration{
			ChannelVolume:     DefaultCalibration(),
			ChannelBrightness: {MinDistance: 0.3, MaxDistance: 0.1},
		})
		if !errors.Is(err, ErrInvalidCalibration) {
			t.Errorf("expected ErrInvalidCalibration, got %v", err)
		}
	})
}

func TestMapper_Map(t *testing.T) {
	m, err := NewMapper(map[Channel]Calibration{
		ChannelVolume:     {MinDistance: 0.0, MaxDistance: 0.1},
		ChannelBrightness: {MinDistance: 0.0, MaxDistance: 0.2},
	})
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}

	pinch := func(h Handedness, d float64) Observation {
		return Observation{
			Handedness: h,
			ThumbTip:   geometry.Point{X: 0.5, Y: 0.5},
			IndexTip:   geometry.Point{X: 0.5 + d, Y: 0.5},
		}
	}

	t.Run("left hand drives volume", func(t *testing.T) {
		r, ok := m.Map(pinch(Left, 0.05))
		if !ok {
			t.Fatal("expected reading for left hand")
		}
		if r.Channel != ChannelVolume {
			t.Errorf("channel = %s, want volume", r.Channel)
		}
		if r.Percent < 49 || r.Percent > 50 {
			t.Errorf("percent = %d, want ~50", r.Percent)
		}
	})

	t.Run("right hand drives brightness with its own calibration", func(t *testing.T) {
		r, ok := m.Map(pinch(Right, 0.05))
		if !ok {
			t.Fatal("expected reading for right hand")
		}
		if r.Channel != ChannelBrightness {
			t.Errorf("channel = %s, want brightness", r.Channel)
		}
		if r.Percent < 24 || r.Percent > 25 {
			t.Errorf("percent = %d, want ~25", r.Percent)
		}
	})

	t.Run("unknown handedness is ignored", func(t *testing.T) {
		if _, ok := m.Map(pinch("Unknown", 0.05)); ok {
			t.Error("expected no reading for unknown handedness")
		}
	})
}

func TestParseChannel(t *testing.T) {
	for _, ch := range Channels {
		got, err := ParseChannel(string(ch))
		if err != nil || got != ch {
			t.Errorf("ParseChannel(%q) = %q, %v", ch, got, err)
		}
	}
	if _, err := ParseChannel("contrast"); !errors.Is(err, ErrUnknownChannel) {
		t.Error("expected error for unknown channel")
	}
}
