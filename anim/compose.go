package anim

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// NewCanvas returns a fully transparent canvas.
func NewCanvas(width, height int) *image.NRGBA {
	return imaging.New(width, height, color.NRGBA{})
}

// Dispose returns a copy of canvas with prev's region disposed of according
// to prev.Dispose. before is the canvas that was on screen before prev was
// drawn; it is consulted only for DisposePrevious and may be nil, in which
// case DisposePrevious behaves like DisposeBackground.
func Dispose(canvas *image.NRGBA, prev Frame, before *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(canvas)
	r := prev.Bounds.Intersect(out.Bounds())

	op := prev.Dispose
	if op == DisposePrevious && before == nil {
		op = DisposeBackground
	}
	switch op {
	case DisposeBackground:
		draw.Copy(out, r.Min, image.Transparent, r, draw.Src, nil)
	case DisposePrevious:
		draw.Copy(out, r.Min, before, r, draw.Src, nil)
	}
	return out
}

// Blend draws f onto canvas in place according to f.Blend.
func Blend(canvas *image.NRGBA, f Frame) {
	if f.Image == nil {
		return
	}
	op := draw.Over
	if f.Blend == BlendSource {
		op = draw.Src
	}
	src := f.Image.Bounds()
	sr := image.Rectangle{Min: src.Min, Max: src.Min.Add(f.Bounds.Size())}.Intersect(src)
	draw.Copy(canvas, f.Bounds.Min, f.Image, sr, op, nil)
}

// Compose produces the canvas shown for next, given the canvas shown for
// the previous frame (prevCanvas), the previous frame itself and the canvas
// shown before the previous frame (beforePrev, nil when prev is the first
// frame). The inputs are not modified.
func Compose(prevCanvas *image.NRGBA, prev Frame, beforePrev *image.NRGBA, next Frame) *image.NRGBA {
	out := Dispose(prevCanvas, prev, beforePrev)
	Blend(out, next)
	return out
}
