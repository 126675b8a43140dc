//go:build !linux

package capture

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ayusman/mudra/internal/logging"
)

// HotplugMonitor is inert on platforms without udev.
type HotplugMonitor struct {
	logger *slog.Logger

	mu      sync.Mutex
	events  chan HotplugEvent
	running bool
}

// NewHotplugMonitor creates an unstarted monitor.
func NewHotplugMonitor(logger *slog.Logger) *HotplugMonitor {
	return &HotplugMonitor{
		logger: logging.Component(logger, "hotplug"),
	}
}

// Start logs that hotplug detection is unavailable and returns nil.
func (m *HotplugMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.logger.Debug("camera hotplug not supported on this platform")
	return nil
}

// Stop is a no-op.
func (m *HotplugMonitor) Stop() {}
