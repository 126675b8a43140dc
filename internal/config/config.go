// Package config defines the mudra configuration and its loading rules.
//
// Values are layered from built-in defaults, an optional YAML or TOML file
// and MUDRA_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/blink"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Duration is a time.Duration that reads and writes as text such as "500ms".
type Duration time.Duration

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Camera selects the frame source.
type Camera struct {
	// Device is the capture device index.
	Device int `koanf:"device" toml:"device"`
	// VideoFile replays a recording instead of opening Device.
	VideoFile string `koanf:"video_file" toml:"video_file"`
	Width     int    `koanf:"width" toml:"width"`
	Height    int    `koanf:"height" toml:"height"`
	FPS       int    `koanf:"fps" toml:"fps"`
	// Hotplug reopens the camera when a video device is attached.
	Hotplug bool `koanf:"hotplug" toml:"hotplug"`
}

// Detector configures landmark inference.
type Detector struct {
	Python                string  `koanf:"python" toml:"python"`
	Script                string  `koanf:"script" toml:"script"`
	MaxHands              int     `koanf:"max_hands" toml:"max_hands"`
	MinConfidence         float64 `koanf:"min_confidence" toml:"min_confidence"`
	MinTrackingConfidence float64 `koanf:"min_tracking_confidence" toml:"min_tracking_confidence"`
}

// Blink configures the double-blink debouncer.
type Blink struct {
	ClosedThreshold   float64  `koanf:"closed_threshold" toml:"closed_threshold"`
	DoubleBlinkWindow Duration `koanf:"double_blink_window" toml:"double_blink_window"`
	MinClosedFrames   int      `koanf:"min_closed_frames" toml:"min_closed_frames"`
}

// Calibration is the fingertip distance range of one channel.
type Calibration struct {
	MinDistance float64 `koanf:"min_distance" toml:"min_distance"`
	MaxDistance float64 `koanf:"max_distance" toml:"max_distance"`
}

// Gesture holds the per-channel calibrations.
type Gesture struct {
	Volume     Calibration `koanf:"volume" toml:"volume"`
	Brightness Calibration `koanf:"brightness" toml:"brightness"`
}

// Actuator selects how levels reach the operating system.
type Actuator struct {
	// Backend is native, plugin or none.
	Backend    string   `koanf:"backend" toml:"backend"`
	PluginDir  string   `koanf:"plugin_dir" toml:"plugin_dir"`
	PluginName string   `koanf:"plugin_name" toml:"plugin_name"`
	Timeout    Duration `koanf:"timeout" toml:"timeout"`
}

// Playback configures the media session opened on a double blink.
type Playback struct {
	Browser string `koanf:"browser" toml:"browser"`
	URL     string `koanf:"url" toml:"url"`
}

// Overlay configures the preview window.
type Overlay struct {
	Window bool   `koanf:"window" toml:"window"`
	Title  string `koanf:"title" toml:"title"`
}

// Server configures the local HTTP API.
type Server struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Addr    string `koanf:"addr" toml:"addr"`
}

// Tray configures the system tray icon.
type Tray struct {
	Enabled bool `koanf:"enabled" toml:"enabled"`
}

// Config contains the complete process configuration.
type Config struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `koanf:"log_level" toml:"log_level"`
	// LogFormat is auto, text or json.
	LogFormat string `koanf:"log_format" toml:"log_format"`
	// DataDir holds the database, lock file and plugins.
	DataDir string `koanf:"data_dir" toml:"data_dir"`

	Camera   Camera   `koanf:"camera" toml:"camera"`
	Detector Detector `koanf:"detector" toml:"detector"`
	Blink    Blink    `koanf:"blink" toml:"blink"`
	Gesture  Gesture  `koanf:"gesture" toml:"gesture"`
	Actuator Actuator `koanf:"actuator" toml:"actuator"`
	Playback Playback `koanf:"playback" toml:"playback"`
	Overlay  Overlay  `koanf:"overlay" toml:"overlay"`
	Server   Server   `koanf:"server" toml:"server"`
	Tray     Tray     `koanf:"tray" toml:"tray"`
}

// Default returns the built-in configuration.
func Default() Config {
	det := detector.DefaultConfig()
	bl := blink.DefaultConfig()
	cal := gesture.DefaultCalibration()

	return Config{
		LogLevel:  "info",
		LogFormat: "auto",
		DataDir:   "~/.mudra",
		Camera: Camera{
			Width:   capture.DefaultWidth,
			Height:  capture.DefaultHeight,
			FPS:     capture.DefaultFPS,
			Hotplug: true,
		},
		Detector: Detector{
			MaxHands:              det.MaxHands,
			MinConfidence:         det.MinConfidence,
			MinTrackingConfidence: det.MinTrackingConf,
		},
		Blink: Blink{
			ClosedThreshold:   bl.ClosedThreshold,
			DoubleBlinkWindow: Duration(bl.Window),
			MinClosedFrames:   bl.MinClosedFrames,
		},
		Gesture: Gesture{
			Volume:     Calibration(cal),
			Brightness: Calibration(cal),
		},
		Actuator: Actuator{
			Backend:    string(actuator.BackendNative),
			PluginName: "system-control",
			Timeout:    Duration(2 * time.Second),
		},
		Playback: Playback{},
		Overlay:  Overlay{Window: true, Title: "mudra"},
		Server:   Server{Enabled: true, Addr: "127.0.0.1:8765"},
		Tray:     Tray{Enabled: false},
	}
}

// Validate checks every section and reports the first problem found.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("%w: log_format %q must be auto, text or json", ErrInvalidConfig, c.LogFormat)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("%w: camera.device must not be negative", ErrInvalidConfig)
	}
	if c.Camera.FPS < 0 {
		return fmt.Errorf("%w: camera.fps must not be negative", ErrInvalidConfig)
	}
	if c.Detector.MaxHands < 1 || c.Detector.MaxHands > 2 {
		return fmt.Errorf("%w: detector.max_hands must be 1 or 2, got %d", ErrInvalidConfig, c.Detector.MaxHands)
	}
	if err := c.BlinkConfig().Validate(); err != nil {
		return fmt.Errorf("%w: blink: %w", ErrInvalidConfig, err)
	}
	for ch, cal := range c.Calibrations() {
		if err := cal.Validate(); err != nil {
			return fmt.Errorf("%w: gesture.%s: %w", ErrInvalidConfig, ch, err)
		}
	}
	if _, err := actuator.ParseBackend(c.Actuator.Backend); err != nil {
		return fmt.Errorf("%w: actuator.backend: %w", ErrInvalidConfig, err)
	}
	if c.Actuator.Timeout <= 0 {
		return fmt.Errorf("%w: actuator.timeout must be positive", ErrInvalidConfig)
	}
	if c.Server.Enabled && strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("%w: server.addr must not be empty when the server is enabled", ErrInvalidConfig)
	}
	return nil
}

// BlinkConfig returns the debouncer parameters.
func (c *Config) BlinkConfig() blink.Config {
	return blink.Config{
		ClosedThreshold: c.Blink.ClosedThreshold,
		Window:          c.Blink.DoubleBlinkWindow.Std(),
		MinClosedFrames: c.Blink.MinClosedFrames,
	}
}

// Calibrations returns the configured calibration of every channel.
func (c *Config) Calibrations() map[gesture.Channel]gesture.Calibration {
	return map[gesture.Channel]gesture.Calibration{
		gesture.ChannelVolume:     gesture.Calibration(c.Gesture.Volume),
		gesture.ChannelBrightness: gesture.Calibration(c.Gesture.Brightness),
	}
}

// DetectorConfig returns the landmark inference options.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
		Python:          c.Detector.Python,
		Script:          c.Detector.Script,
	}
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "mudra.lock")
}

// PluginDir returns the actuator plugin directory.
func (c *Config) PluginDir() string {
	if c.Actuator.PluginDir != "" {
		return c.Actuator.PluginDir
	}
	return filepath.Join(c.DataDir, "plugins")
}

// EnsureDirectories creates the data directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory %q: %w", c.DataDir, err)
	}
	return nil
}

// WriteTOML writes the configuration as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}

func (c *Config) normalize() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Actuator.Backend = strings.ToLower(strings.TrimSpace(c.Actuator.Backend))

	var err error
	if c.DataDir, err = ExpandPath(c.DataDir); err != nil {
		return err
	}
	if c.Actuator.PluginDir, err = ExpandPath(c.Actuator.PluginDir); err != nil {
		return err
	}
	if c.Camera.VideoFile, err = ExpandPath(c.Camera.VideoFile); err != nil {
		return err
	}
	if c.Detector.Script, err = ExpandPath(c.Detector.Script); err != nil {
		return err
	}
	return nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
// The empty path is returned unchanged.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			path = home
		} else if len(path) > 1 && (path[1] == '/' || path[1] == '\\') {
			path = filepath.Join(home, path[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return abs, nil
}
