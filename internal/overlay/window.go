package overlay

import (
	"sync"

	"gocv.io/x/gocv"
)

// keyEscape is the key code WaitKey reports for ESC.
const keyEscape = 27

// Window shows frames in a desktop window and watches for the ESC key.
// The native window is created on the first Show, so it lives on the
// goroutine that runs the frame loop.
type Window struct {
	title string

	mu      sync.Mutex
	win     *gocv.Window
	stopped bool
}

// NewWindow creates a Window with the given title.
func NewWindow(title string) *Window {
	return &Window{title: title}
}

// Show implements Sink. It also polls the keyboard once.
func (w *Window) Show(frame *gocv.Mat) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.win == nil {
		w.win = gocv.NewWindow(w.title)
	}
	w.win.IMShow(*frame)
	if w.win.WaitKey(1) == keyEscape {
		w.stopped = true
	}
}

// Stopped reports whether ESC has been pressed.
func (w *Window) Stopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// Close destroys the native window.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.win == nil {
		return nil
	}
	err := w.win.Close()
	w.win = nil
	return err
}
