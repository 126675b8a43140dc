package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/playback"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

// errAlreadyRunning is returned when another instance holds the lock.
var errAlreadyRunning = errors.New("another mudra instance is running")

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the camera control loop (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx)
		},
	}
}

func runPipeline(cmd *cobra.Command, cc *commandContext) error {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cc.ensureLogger()
	if err != nil {
		return err
	}
	if cc.configPath != "" {
		logger.Info("config loaded", "path", cc.configPath)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", errAlreadyRunning, cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release lock", logging.Err(err))
		}
	}()

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	calibrations, err := st.Calibrations().Apply(cfg.Calibrations())
	if err != nil {
		return fmt.Errorf("stored calibration: %w", err)
	}
	settings := st.Settings()
	paused := settings.Bool(store.SettingPaused, false)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	act, err := buildActuator(cfg, logger)
	if err != nil {
		return err
	}

	det, err := detector.NewMediaPipeDetector(cfg.DetectorConfig())
	if err != nil {
		return fmt.Errorf("landmark detector: %w", err)
	}

	cam := buildCamera(cfg)

	var hotplug app.HotplugSource
	if cfg.Camera.Hotplug && cfg.Camera.VideoFile == "" {
		monitor := capture.NewHotplugMonitor(logger)
		if err := monitor.Start(ctx); err != nil {
			logger.Warn("camera hotplug", logging.Err(err))
		} else {
			defer monitor.Stop()
			hotplug = monitor
		}
	}

	m := metrics.NewManager()
	hub := overlay.NewStreamHub(logger)
	sinks := []overlay.Sink{hub}
	var stopSignal app.StopSignal
	if cfg.Overlay.Window {
		window := overlay.NewWindow(cfg.Overlay.Title)
		defer window.Close()
		sinks = append(sinks, window)
		stopSignal = window
	}

	a, err := app.New(app.Config{
		Camera:       cam,
		Detector:     det,
		Blink:        cfg.BlinkConfig(),
		Calibrations: calibrations,
		Actuator:     act,
		Playback:     playback.NewBrowserOpener(cfg.Playback.Browser, cfg.Playback.URL, logger),
		Renderer:     overlay.NewMulti(sinks...),
		Stop:         stopSignal,
		Hotplug:      hotplug,
		Events:       st.Events(),
		Metrics:      m,
		Logger:       logger,
		Paused:       paused,
	})
	if err != nil {
		det.Close()
		return err
	}

	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			Store:       st,
			Status:      a,
			Calibration: a.Calibration,
			Stream:      hub,
			Metrics:     m,
			Logger:      logger,
		})
		go func() {
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				logger.Error("http server", logging.Err(err))
			}
		}()
	}

	if !cfg.Tray.Enabled {
		return a.Run(ctx)
	}
	return runWithTray(ctx, cfg, a, settings, logger)
}

// runWithTray runs the loop in the background while the tray owns the main
// goroutine. Either side ending stops the other.
func runWithTray(ctx context.Context, cfg *config.Config, a *app.App, settings *store.SettingRepository, logger *slog.Logger) error {
	t := tray.New(a.IsEnabled())
	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		if err := settings.SetBool(store.SettingPaused, !enabled); err != nil {
			logger.Warn("persist paused setting", logging.Err(err))
		}
	})
	t.OnQuit(a.Stop)
	if cfg.Server.Enabled {
		url := "http://" + cfg.Server.Addr + "/api/status"
		t.OnSettings(func() {
			if err := openURL(url); err != nil {
				logger.Warn("open dashboard", logging.Err(err), "url", url)
			}
		})
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go t.Watch(watchCtx, a)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		t.Quit()
	}()

	t.Run()
	a.Stop()
	return <-errCh
}

func buildCamera(cfg *config.Config) capture.Camera {
	var cam capture.Camera
	if cfg.Camera.VideoFile != "" {
		cam = capture.NewVideoFile(cfg.Camera.VideoFile)
	} else {
		cam = capture.NewCamera(cfg.Camera.Device)
	}
	cam.SetFPS(cfg.Camera.FPS)
	cam.SetResolution(cfg.Camera.Width, cfg.Camera.Height)
	return cam
}

func buildActuator(cfg *config.Config, logger *slog.Logger) (actuator.Controller, error) {
	backend, err := actuator.ParseBackend(cfg.Actuator.Backend)
	if err != nil {
		return nil, err
	}

	switch backend {
	case actuator.BackendNone:
		return actuator.NewLog(logger), nil
	case actuator.BackendPlugin:
		mgr := plugin.NewManager(cfg.PluginDir(), logger)
		if err := mgr.Discover(); err != nil {
			return nil, err
		}
		return actuator.NewPlugin(mgr, plugin.NewExecutor(cfg.Actuator.Timeout.Std()), cfg.Actuator.PluginName)
	default:
		return actuator.NewNative(nil), nil
	}
}

func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
