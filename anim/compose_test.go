package anim

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red         = color.NRGBA{R: 255, A: 255}
	blue        = color.NRGBA{B: 255, A: 255}
	green       = color.NRGBA{G: 255, A: 255}
	yellow      = color.NRGBA{R: 255, G: 255, A: 255}
	transparent = color.NRGBA{}
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func frame(r image.Rectangle, c color.NRGBA, dispose DisposeOp, blend BlendOp) Frame {
	return Frame{
		Bounds:  r,
		Dispose: dispose,
		Blend:   blend,
		Image:   solid(r.Dx(), r.Dy(), c),
	}
}

func at(img *image.NRGBA, x, y int) color.NRGBA {
	return img.NRGBAAt(x, y)
}

func TestBuildDisposeBackgroundThenPrevious(t *testing.T) {
	t.Parallel()

	r1 := image.Rect(1, 1, 3, 3)
	r2 := image.Rect(1, 1, 2, 2)
	frames := []Frame{
		frame(image.Rect(0, 0, 4, 4), red, DisposeNone, BlendSource),
		frame(r1, blue, DisposeBackground, BlendOver),
		frame(r2, green, DisposePrevious, BlendOver),
		frame(image.Rect(0, 0, 1, 1), yellow, DisposeNone, BlendSource),
	}

	seq, err := Build(4, 4, nil, frames, 0)
	require.NoError(t, err)
	require.Equal(t, 4, seq.Len())
	c0, c1, c2, c3 := seq.Composited(0), seq.Composited(1), seq.Composited(2), seq.Composited(3)

	assert.Equal(t, red, at(c0, 2, 2))
	assert.Equal(t, blue, at(c1, 2, 2))
	assert.Equal(t, red, at(c1, 0, 0))

	// Frame 1's region is cleared before frame 2 draws; everything outside
	// it is still frame 0's picture.
	for y := range 4 {
		for x := range 4 {
			p := image.Pt(x, y)
			if p.In(r1) {
				continue
			}
			assert.Equal(t, at(c0, x, y), at(c2, x, y), "pixel %v", p)
		}
	}
	assert.Equal(t, green, at(c2, 1, 1))
	assert.Equal(t, transparent, at(c2, 2, 2))

	// Frame 2 disposes to previous: its region comes back from frame 1's
	// canvas, the rest of frame 1's cleared area stays clear.
	assert.Equal(t, blue, at(c3, 1, 1))
	assert.Equal(t, transparent, at(c3, 2, 2))
	assert.Equal(t, yellow, at(c3, 0, 0))
	assert.Equal(t, red, at(c3, 3, 3))
}

func TestBuildLeadingPreviousActsAsBackground(t *testing.T) {
	t.Parallel()

	frames := []Frame{
		frame(image.Rect(0, 0, 4, 4), red, DisposePrevious, BlendSource),
		frame(image.Rect(0, 0, 2, 2), green, DisposeNone, BlendOver),
	}
	seq, err := Build(4, 4, nil, frames, 0)
	require.NoError(t, err)

	c1 := seq.Composited(1)
	assert.Equal(t, green, at(c1, 0, 0))
	assert.Equal(t, transparent, at(c1, 3, 3), "frame 0's region is cleared, not kept")
}

func TestBlendOverVersusSource(t *testing.T) {
	t.Parallel()

	half := color.NRGBA{B: 255, A: 0}
	base := frame(image.Rect(0, 0, 2, 1), red, DisposeNone, BlendSource)

	over, err := Build(2, 1, nil, []Frame{base, frame(image.Rect(0, 0, 1, 1), half, DisposeNone, BlendOver)}, 0)
	require.NoError(t, err)
	assert.Equal(t, red, at(over.Composited(1), 0, 0), "a fully transparent pixel blended over leaves the canvas")

	translucent := color.NRGBA{B: 255, A: 128}
	mixed, err := Build(2, 1, nil, []Frame{base, frame(image.Rect(0, 0, 1, 1), translucent, DisposeNone, BlendOver)}, 0)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 127, B: 128, A: 255}, at(mixed.Composited(1), 0, 0), "partial alpha mixes with the canvas")
	assert.Equal(t, red, at(mixed.Composited(1), 1, 0))

	replaced, err := Build(2, 1, nil, []Frame{base, frame(image.Rect(0, 0, 1, 1), translucent, DisposeNone, BlendSource)}, 0)
	require.NoError(t, err)
	assert.Equal(t, translucent, at(replaced.Composited(1), 0, 0), "source keeps partial alpha as is")

	src, err := Build(2, 1, nil, []Frame{base, frame(image.Rect(0, 0, 1, 1), half, DisposeNone, BlendSource)}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), at(src.Composited(1), 0, 0).A, "source replaces alpha too")
	assert.Equal(t, red, at(src.Composited(1), 1, 0))
}

func TestComposeDoesNotModifyInputs(t *testing.T) {
	t.Parallel()

	prevCanvas := solid(2, 2, red)
	before := solid(2, 2, blue)
	prev := Frame{Bounds: image.Rect(0, 0, 2, 2), Dispose: DisposePrevious}
	next := frame(image.Rect(0, 0, 1, 1), green, DisposeNone, BlendSource)

	out := Compose(prevCanvas, prev, before, next)
	assert.Equal(t, green, at(out, 0, 0))
	assert.Equal(t, blue, at(out, 1, 1))
	assert.Equal(t, red, at(prevCanvas, 0, 0))
	assert.Equal(t, red, at(prevCanvas, 1, 1))
	assert.Equal(t, blue, at(before, 0, 0))
}

func TestFrameImageOffsetOrigin(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(10, 10, 11, 11))
	img.SetNRGBA(10, 10, yellow)
	f := Frame{Bounds: image.Rect(1, 0, 2, 1), Blend: BlendSource, Image: img}

	seq, err := Build(2, 1, nil, []Frame{f}, 0)
	require.NoError(t, err)
	assert.Equal(t, yellow, at(seq.Composited(0), 1, 0))
	assert.Equal(t, transparent, at(seq.Composited(0), 0, 0))
}

func TestBuildValidation(t *testing.T) {
	t.Parallel()

	_, err := Build(0, 4, nil, nil, 0)
	assert.ErrorIs(t, err, ErrCanvasSize)

	_, err = Build(4, 4, nil, []Frame{frame(image.Rect(2, 2, 5, 5), red, DisposeNone, BlendSource)}, 0)
	assert.ErrorIs(t, err, ErrFrameBounds)
}

func TestBuildStatic(t *testing.T) {
	t.Parallel()

	seq, err := Build(3, 2, solid(3, 2, blue), nil, 0)
	require.NoError(t, err)
	assert.True(t, seq.Static())
	assert.Equal(t, 1, seq.Len())
	assert.Equal(t, blue, at(seq.Composited(0), 2, 1))
	assert.Equal(t, 3*2*4, seq.Bytes())

	w, h := seq.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)

	snap := seq.Snapshot(0)
	snap.SetNRGBA(0, 0, red)
	assert.Equal(t, blue, at(seq.Composited(0), 0, 0))
}

func TestOpStrings(t *testing.T) {
	assert.Equal(t, "previous", DisposePrevious.String())
	assert.Equal(t, "over", BlendOver.String())
	assert.Equal(t, "unknown", DisposeOp(9).String())
}
