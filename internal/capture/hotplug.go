package capture

// HotplugAction is the kind of device change.
type HotplugAction string

const (
	HotplugAdd    HotplugAction = "add"
	HotplugRemove HotplugAction = "remove"
)

// HotplugEvent reports a video device appearing or disappearing.
type HotplugEvent struct {
	Action HotplugAction
	Device string // e.g. /dev/video0
}

// hotplugBuffer bounds queued events; the frame loop drains them once per
// iteration and older events are dropped when it falls behind.
const hotplugBuffer = 8

// Events returns the channel of camera hotplug events. It is nil until the
// monitor starts, and for monitors that are unsupported on this platform.
func (m *HotplugMonitor) Events() <-chan HotplugEvent {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

// Running reports whether the monitor is active.
func (m *HotplugMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *HotplugMonitor) emit(ev HotplugEvent) {
	select {
	case m.events <- ev:
	default:
		m.logger.Debug("hotplug event dropped", "action", string(ev.Action), "device", ev.Device)
	}
}
