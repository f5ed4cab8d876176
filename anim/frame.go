// Package anim composites animated images into ready-to-display frames and
// plays them back.
//
// Compositing happens once, when a Sequence is built: every frame's dispose
// and blend operations are resolved against the previous canvases, so each
// composited frame is a complete picture. Playback is pure bookkeeping over
// those pictures.
package anim

import (
	"image"
	"time"
)

// DisposeOp says how a frame's region is treated before the next frame is drawn.
type DisposeOp uint8

const (
	// DisposeNone leaves the canvas as it is.
	DisposeNone DisposeOp = iota
	// DisposeBackground clears the frame's region to transparent black.
	DisposeBackground
	// DisposePrevious restores the frame's region to what it was before
	// the frame was drawn.
	DisposePrevious
)

func (op DisposeOp) String() string {
	switch op {
	case DisposeNone:
		return "none"
	case DisposeBackground:
		return "background"
	case DisposePrevious:
		return "previous"
	default:
		return "unknown"
	}
}

// BlendOp says how a frame's pixels combine with the canvas.
type BlendOp uint8

const (
	// BlendSource overwrites the region, alpha included.
	BlendSource BlendOp = iota
	// BlendOver alpha-composites the frame over the canvas.
	BlendOver
)

func (op BlendOp) String() string {
	switch op {
	case BlendSource:
		return "source"
	case BlendOver:
		return "over"
	default:
		return "unknown"
	}
}

// Frame describes one animation step.
type Frame struct {
	// Bounds is the region of the canvas the frame covers.
	Bounds image.Rectangle

	// Delay is how long the frame stays on screen.
	Delay time.Duration

	Dispose DisposeOp
	Blend   BlendOp

	// Image holds the frame's pixels. Its bounds may start anywhere; the
	// top-left pixel is drawn at Bounds.Min.
	Image image.Image
}
