// Package tray provides the system tray menu of mudra.
package tray

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/overlay"
)

// RefreshInterval is how often the status lines are refreshed by Watch.
const RefreshInterval = 500 * time.Millisecond

// StatusSource provides the orchestrator's status snapshot.
type StatusSource interface {
	Status() app.Status
}

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuVolume     *systray.MenuItem
	menuBrightness *systray.MenuItem
	menuPlayback   *systray.MenuItem
}

// New creates a new Tray with the given initial enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback for the dashboard menu item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("mudra")
	systray.SetTooltip("mudra blink and gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume gesture control")
	systray.AddSeparator()

	t.menuVolume = systray.AddMenuItem(levelTitle("Volume", overlay.Unknown), "Last volume level")
	t.menuVolume.Disable()
	t.menuBrightness = systray.AddMenuItem(levelTitle("Brightness", overlay.Unknown), "Last brightness level")
	t.menuBrightness.Disable()
	t.menuPlayback = systray.AddMenuItem(playbackTitle(false), "Playback session")
	t.menuPlayback.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Dashboard...", "Open the status page in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit mudra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSettings handles the dashboard menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the read-only status lines.
func (t *Tray) SetStatus(st app.Status) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuVolume != nil {
		t.menuVolume.SetTitle(levelTitle("Volume", st.Volume))
	}
	if t.menuBrightness != nil {
		t.menuBrightness.SetTitle(levelTitle("Brightness", st.Brightness))
	}
	if t.menuPlayback != nil {
		t.menuPlayback.SetTitle(playbackTitle(st.Playback))
	}
}

// Watch refreshes the status lines from source until ctx is canceled.
func (t *Tray) Watch(ctx context.Context, source StatusSource) {
	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.SetStatus(source.Status())
		}
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Paused"
}

func levelTitle(name string, level int) string {
	if level == overlay.Unknown {
		return name + ": --"
	}
	return fmt.Sprintf("%s: %d%%", name, level)
}

func playbackTitle(active bool) string {
	if active {
		return "Playback: on"
	}
	return "Playback: off"
}
