// Package overlay draws pipeline state onto camera frames and hands the
// annotated frames to display sinks.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/gesture"
)

// Unknown marks a level that has not been dispatched yet.
const Unknown = -1

var (
	colorEye   = color.RGBA{R: 0, G: 255, B: 255, A: 0}
	colorThumb = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	colorIndex = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	colorLine  = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	colorText  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	colorAlert = color.RGBA{R: 0, G: 0, B: 255, A: 0}
)

// Pinch is one hand's fingertip pair and the level it maps to.
type Pinch struct {
	Channel gesture.Channel
	Thumb   geometry.Point
	Index   geometry.Point
	Percent int
}

// Annotations is what gets drawn on a frame. Points are normalized.
type Annotations struct {
	Eyes    []geometry.EyeSet
	Pinches []Pinch

	EAR    float64
	HasEAR bool

	// Volume and Brightness are Unknown until first dispatched.
	Volume     int
	Brightness int

	Playback bool
	Paused   bool
}

// NewAnnotations returns Annotations with both levels Unknown.
func NewAnnotations() Annotations {
	return Annotations{Volume: Unknown, Brightness: Unknown}
}

// Renderer consumes a frame and its annotations. Rendering never fails the
// frame loop.
type Renderer interface {
	Render(frame *gocv.Mat, ann Annotations)
}

// Sink displays or publishes an already annotated frame.
type Sink interface {
	Show(frame *gocv.Mat)
}

// Nop is a Renderer that does nothing.
type Nop struct{}

// Render implements Renderer.
func (Nop) Render(*gocv.Mat, Annotations) {}

// Multi draws annotations once and fans the frame out to every sink.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a Multi over sinks. Nil sinks are dropped.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Render implements Renderer.
func (m *Multi) Render(frame *gocv.Mat, ann Annotations) {
	if len(m.sinks) == 0 || frame == nil || frame.Empty() {
		return
	}
	Draw(frame, ann)
	for _, s := range m.sinks {
		s.Show(frame)
	}
}

// Draw paints ann onto frame in place.
func Draw(frame *gocv.Mat, ann Annotations) {
	w, h := frame.Cols(), frame.Rows()
	px := func(p geometry.Point) image.Point {
		return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
	}

	for _, eye := range ann.Eyes {
		for _, p := range eye {
			gocv.Circle(frame, px(p), 2, colorEye, -1)
		}
	}

	for _, p := range ann.Pinches {
		thumb, index := px(p.Thumb), px(p.Index)
		gocv.Circle(frame, thumb, 6, colorThumb, -1)
		gocv.Circle(frame, index, 6, colorIndex, -1)
		gocv.Line(frame, thumb, index, colorLine, 2)
		mid := image.Pt((thumb.X+index.X)/2, (thumb.Y+index.Y)/2-10)
		putText(frame, fmt.Sprintf("%d%%", p.Percent), mid, colorLine)
	}

	y := 30
	line := func(text string, c color.RGBA) {
		putText(frame, text, image.Pt(10, y), c)
		y += 30
	}

	if ann.HasEAR {
		line(fmt.Sprintf("EAR: %.2f", ann.EAR), colorText)
	}
	line("Volume: "+level(ann.Volume), colorText)
	line("Brightness: "+level(ann.Brightness), colorText)
	if ann.Playback {
		line("Playback: on", colorText)
	} else {
		line("Playback: off", colorText)
	}
	if ann.Paused {
		line("PAUSED", colorAlert)
	}
}

func level(p int) string {
	if p == Unknown {
		return "--"
	}
	return fmt.Sprintf("%d%%", p)
}

func putText(frame *gocv.Mat, text string, org image.Point, c color.RGBA) {
	gocv.PutText(frame, text, org, gocv.FontHersheySimplex, 0.7, c, 2)
}
