package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/logging"
)

// DefaultURL is opened when no URL is configured.
const DefaultURL = "https://www.youtube.com/results?search_query=relaxing+music"

// ErrNoBrowser is returned when no usable browser executable is found.
var ErrNoBrowser = errors.New("no browser found")

// exitGrace is how long Close waits for the browser to exit after the kill.
const exitGrace = 5 * time.Second

// BrowserOpener opens URL in a new Chromium-family browser window backed by
// a throw-away profile directory.
type BrowserOpener struct {
	// Browser is the executable to launch. Empty means search the usual names.
	Browser string
	// URL is the page to open. Empty means DefaultURL.
	URL string

	logger   *slog.Logger
	lookPath func(string) (string, error)
}

// NewBrowserOpener creates a BrowserOpener.
func NewBrowserOpener(browser, url string, logger *slog.Logger) *BrowserOpener {
	return &BrowserOpener{
		Browser:  browser,
		URL:      url,
		logger:   logging.Component(logger, "playback"),
		lookPath: exec.LookPath,
	}
}

// Open launches the browser. The returned session owns the process.
func (b *BrowserOpener) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := b.findBrowser()
	if err != nil {
		return nil, err
	}

	url := b.URL
	if url == "" {
		url = DefaultURL
	}

	profile, err := os.MkdirTemp("", "mudra-browser-")
	if err != nil {
		return nil, fmt.Errorf("create browser profile: %w", err)
	}

	cmd := exec.Command(browser,
		"--user-data-dir="+profile,
		"--no-first-run",
		"--no-default-browser-check",
		"--new-window",
		url,
	)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(profile)
		return nil, fmt.Errorf("start %s: %w", browser, err)
	}

	b.logger.Info("playback opened", "browser", browser, "url", url, "pid", cmd.Process.Pid)

	s := &browserSession{cmd: cmd, profile: profile, logger: b.logger, done: make(chan struct{})}
	go s.wait()
	return s, nil
}

func (b *BrowserOpener) findBrowser() (string, error) {
	lookPath := b.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if b.Browser != "" {
		path, err := lookPath(b.Browser)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrNoBrowser, b.Browser, err)
		}
		return path, nil
	}

	for _, name := range browserCandidates() {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrNoBrowser
}

func browserCandidates() []string {
	names := []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}
	switch runtime.GOOS {
	case "darwin":
		names = append(names,
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		)
	case "windows":
		names = append(names,
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		)
	}
	return names
}

type browserSession struct {
	cmd     *exec.Cmd
	profile string
	logger  *slog.Logger

	done     chan struct{}
	waitErr  error
	closeErr error
	once     sync.Once
}

func (s *browserSession) wait() {
	s.waitErr = s.cmd.Wait()
	close(s.done)
}

// Close kills the browser and removes its profile directory.
func (s *browserSession) Close() error {
	s.once.Do(func() {
		select {
		case <-s.done:
			// Window already closed by the user
		default:
			if err := s.cmd.Process.Kill(); err != nil {
				s.logger.Warn("kill browser", logging.Err(err))
			}
			select {
			case <-s.done:
			case <-time.After(exitGrace):
				s.closeErr = fmt.Errorf("browser pid %d did not exit", s.cmd.Process.Pid)
			}
		}

		if err := os.RemoveAll(s.profile); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("remove browser profile: %w", err)
		}
		s.logger.Info("playback closed", "pid", s.cmd.Process.Pid)
	})
	return s.closeErr
}
