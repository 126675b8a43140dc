package overlay

import (
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/logging"
)

// StreamHub publishes annotated frames as JPEG to MJPEG subscribers.
// Frames are only encoded while at least one subscriber is attached.
type StreamHub struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	latest []byte
}

// NewStreamHub creates an empty StreamHub.
func NewStreamHub(logger *slog.Logger) *StreamHub {
	return &StreamHub{
		logger: logging.Component(logger, "stream"),
		subs:   make(map[chan []byte]struct{}),
	}
}

// Subscribe attaches a subscriber. The channel holds at most one pending
// frame; a slow reader only ever sees the newest. Call cancel to detach.
func (h *StreamHub) Subscribe() (frames <-chan []byte, cancel func()) {
	ch := make(chan []byte, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.latest != nil {
		ch <- h.latest
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			if len(h.subs) == 0 {
				h.latest = nil
			}
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of attached subscribers.
func (h *StreamHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Latest returns the most recently published JPEG, or nil.
func (h *StreamHub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Show implements Sink.
func (h *StreamHub) Show(frame *gocv.Mat) {
	if h.Subscribers() == 0 {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		h.logger.Debug("encode frame", logging.Err(err))
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	h.Publish(data)
}

// Publish hands a JPEG to every subscriber, replacing any frame the
// subscriber has not read yet.
func (h *StreamHub) Publish(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.subs) == 0 {
		return
	}
	h.latest = jpeg
	for ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- jpeg
	}
}
