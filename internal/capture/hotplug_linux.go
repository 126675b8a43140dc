//go:build linux

package capture

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"github.com/ayusman/mudra/internal/logging"
)

// HotplugMonitor listens for udev netlink events about video4linux devices.
type HotplugMonitor struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	events  chan HotplugEvent
	running bool
}

// NewHotplugMonitor creates an unstarted monitor.
func NewHotplugMonitor(logger *slog.Logger) *HotplugMonitor {
	return &HotplugMonitor{
		logger: logging.Component(logger, "hotplug"),
	}
}

// Start begins listening for camera add/remove events. Failing to open the
// netlink socket is not fatal: the monitor logs and stays idle.
func (m *HotplugMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("netlink unavailable; camera hotplug disabled", logging.Err(err))
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.events = make(chan HotplugEvent, hotplugBuffer)
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("hotplug monitor started")
	return nil
}

// Stop shuts down the monitor. It is safe to call more than once.
func (m *HotplugMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.quit)
	m.quit = nil
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("hotplug monitor stopped")
}

func (m *HotplugMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			if ev, ok := toHotplugEvent(uevent); ok {
				m.logger.Info("camera hotplug", "action", string(ev.Action), "device", ev.Device)
				m.emit(ev)
			}
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Err(err))
		}
	}
}

// buildMatcher matches SUBSYSTEM=video4linux with ACTION=add|remove.
func buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func toHotplugEvent(uevent netlink.UEvent) (HotplugEvent, bool) {
	var action HotplugAction
	switch uevent.Action {
	case netlink.ADD:
		action = HotplugAdd
	case netlink.REMOVE:
		action = HotplugRemove
	default:
		return HotplugEvent{}, false
	}

	device := deviceName(uevent)
	if device == "" {
		return HotplugEvent{}, false
	}
	return HotplugEvent{Action: action, Device: device}, true
}

// deviceName gets the device node from a uevent.
func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/dev/") {
			return "/dev/" + devname
		}
		return devname
	}

	// Fall back to the last DEVPATH element (e.g. .../video4linux/video0)
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
