// Package actuator applies control levels to the host: output volume and
// display brightness.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
)

var (
	// ErrUnsupported is returned when the platform has no way to set a level.
	ErrUnsupported = errors.New("actuator not supported on this platform")

	// ErrUnknownBackend is returned by ParseBackend.
	ErrUnknownBackend = errors.New("unknown actuator backend")
)

// Controller sets host output levels. Percent arguments are clamped to
// [0,100] by every implementation.
type Controller interface {
	SetVolumePercent(ctx context.Context, percent int) error
	SetBrightnessPercent(ctx context.Context, percent int) error
}

// Backend selects a Controller implementation.
type Backend string

const (
	BackendNative Backend = "native"
	BackendPlugin Backend = "plugin"
	BackendNone   Backend = "none"
)

// ParseBackend converts a backend name into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendNative, BackendPlugin, BackendNone:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Clamp bounds percent to [0,100].
func Clamp(percent int) int {
	return max(0, min(100, percent))
}

// Set dispatches percent to the setter for channel.
func Set(ctx context.Context, c Controller, ch gesture.Channel, percent int) error {
	switch ch {
	case gesture.ChannelVolume:
		return c.SetVolumePercent(ctx, percent)
	case gesture.ChannelBrightness:
		return c.SetBrightnessPercent(ctx, percent)
	}
	return fmt.Errorf("%w %q", gesture.ErrUnknownChannel, ch)
}

// Log is a Controller that only logs the levels it is given.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging-only Controller.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logging.Component(logger, "actuator")}
}

func (l *Log) SetVolumePercent(ctx context.Context, percent int) error {
	l.logger.Info("volume", "percent", Clamp(percent))
	return nil
}

func (l *Log) SetBrightnessPercent(ctx context.Context, percent int) error {
	l.logger.Info("brightness", "percent", Clamp(percent))
	return nil
}
