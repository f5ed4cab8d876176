package anim

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Sentinel errors.
var (
	// ErrFrameBounds is returned when a frame reaches outside the canvas.
	ErrFrameBounds = errors.New("anim: frame outside canvas")

	// ErrCanvasSize is returned for an empty canvas.
	ErrCanvasSize = errors.New("anim: invalid canvas size")
)

// Sequence is a fully composited animation. It is immutable and may be
// shared by any number of Players.
type Sequence struct {
	width, height int
	frames        []Frame
	composited    []*image.NRGBA
	loops         uint
}

// Build composites frames onto a width x height canvas.
//
// Frame 0 is drawn onto a transparent canvas. Every later frame starts from
// a copy of the previous composited frame, applies the previous frame's
// dispose operation, then draws itself with its blend operation. A leading
// DisposePrevious is treated as DisposeBackground.
//
// With no frames the result is a static sequence showing still. loops is
// the number of times playback runs; 0 repeats forever.
func Build(width, height int, still image.Image, frames []Frame, loops uint) (*Sequence, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasSize, width, height)
	}

	if len(frames) == 0 {
		canvas := NewCanvas(width, height)
		if still != nil {
			Blend(canvas, Frame{Bounds: canvas.Bounds(), Blend: BlendSource, Image: still})
		}
		return &Sequence{width: width, height: height, composited: []*image.NRGBA{canvas}}, nil
	}

	canvasRect := image.Rect(0, 0, width, height)
	for i, f := range frames {
		if !f.Bounds.In(canvasRect) {
			return nil, fmt.Errorf("%w: frame %d at %v on %dx%d canvas", ErrFrameBounds, i, f.Bounds, width, height)
		}
	}

	composited := make([]*image.NRGBA, len(frames))
	for i, f := range frames {
		if i == 0 {
			canvas := NewCanvas(width, height)
			Blend(canvas, f)
			composited[0] = canvas
			continue
		}
		var before *image.NRGBA
		if i >= 2 {
			before = composited[i-2]
		}
		composited[i] = Compose(composited[i-1], frames[i-1], before, f)
	}

	return &Sequence{
		width:      width,
		height:     height,
		frames:     append([]Frame(nil), frames...),
		composited: composited,
		loops:      loops,
	}, nil
}

// Static reports whether the sequence is a single still picture.
func (s *Sequence) Static() bool {
	return len(s.frames) == 0
}

// Len returns the number of displayable frames (1 for a static sequence).
func (s *Sequence) Len() int {
	return len(s.composited)
}

// Size returns the canvas dimensions.
func (s *Sequence) Size() (width, height int) {
	return s.width, s.height
}

// Loops returns the configured play count; 0 means forever.
func (s *Sequence) Loops() uint {
	return s.loops
}

// Frame returns the descriptor of frame i. Static sequences have none.
func (s *Sequence) Frame(i int) Frame {
	return s.frames[i]
}

// Composited returns the composited canvas for frame i. The image is shared
// and must not be modified.
func (s *Sequence) Composited(i int) *image.NRGBA {
	return s.composited[i]
}

// Bytes approximates the memory held by the composited canvases.
func (s *Sequence) Bytes() int {
	n := 0
	for _, c := range s.composited {
		n += len(c.Pix)
	}
	return n
}

// Snapshot returns a private copy of composited frame i.
func (s *Sequence) Snapshot(i int) *image.NRGBA {
	return imaging.Clone(s.composited[i])
}
