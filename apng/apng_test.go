package apng

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/assetpack/anim"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 128}
)

func solidFrame(r image.Rectangle, c color.NRGBA, d time.Duration, dispose anim.DisposeOp, blend anim.BlendOp) anim.Frame {
	return anim.Frame{
		Bounds:  r,
		Delay:   d,
		Dispose: dispose,
		Blend:   blend,
		Image:   imaging.New(r.Dx(), r.Dy(), c),
	}
}

func encode(t *testing.T, w, h int, frames []anim.Frame, loops uint) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, w, h, frames, loops))
	return buf.Bytes()
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frames := []anim.Frame{
		solidFrame(image.Rect(0, 0, 4, 3), red, 100*time.Millisecond, anim.DisposeNone, anim.BlendSource),
		solidFrame(image.Rect(1, 1, 3, 3), green, 250*time.Millisecond, anim.DisposeBackground, anim.BlendOver),
		solidFrame(image.Rect(2, 0, 4, 2), blue, 40*time.Millisecond, anim.DisposePrevious, anim.BlendOver),
	}
	data := encode(t, 4, 3, frames, 2)

	img, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, img.Animated())
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Equal(t, uint(2), img.Loops)
	require.Len(t, img.Frames, len(frames))

	for i, want := range frames {
		got := img.Frames[i]
		assert.Equal(t, want.Bounds, got.Bounds, "frame %d bounds", i)
		assert.Equal(t, want.Delay, got.Delay, "frame %d delay", i)
		assert.Equal(t, want.Dispose, got.Dispose, "frame %d dispose", i)
		assert.Equal(t, want.Blend, got.Blend, "frame %d blend", i)
		assert.Equal(t, want.Bounds.Size(), got.Image.Bounds().Size(), "frame %d size", i)
		b := got.Image.Bounds()
		assert.Equal(t, nrgbaAt(want.Image, 0, 0), nrgbaAt(got.Image, b.Min.X, b.Min.Y), "frame %d pixel", i)
	}

	// The default image is the first frame.
	assert.Equal(t, red, nrgbaAt(img.Default, 3, 2))
}

func TestDecodePlainPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(5, 2, green)))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.False(t, img.Animated())
	assert.Equal(t, 5, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, green, nrgbaAt(img.Default, 4, 1))
}

func TestDecodePalettedPNG(t *testing.T) {
	pal := color.Palette{color.NRGBA{A: 0}, red}
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	src.SetColorIndex(1, 1, 1)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, red, nrgbaAt(img.Default, 1, 1))
	assert.Equal(t, uint8(0), nrgbaAt(img.Default, 0, 0).A)
}

func TestDelayClampsAndDefaults(t *testing.T) {
	assert.Equal(t, 50*time.Millisecond, delay(5, 0))
	assert.Equal(t, 500*time.Millisecond, delay(1, 2))
	assert.Equal(t, time.Duration(0), delay(0, 1000))

	long := solidFrame(image.Rect(0, 0, 1, 1), red, 2*time.Minute, anim.DisposeNone, anim.BlendSource)
	img, err := Decode(encode(t, 1, 1, []anim.Frame{long}, 0))
	require.NoError(t, err)
	assert.Equal(t, 65535*time.Millisecond, img.Frames[0].Delay)
}

func TestEncodeValidation(t *testing.T) {
	full := solidFrame(image.Rect(0, 0, 2, 2), red, 0, anim.DisposeNone, anim.BlendSource)
	tests := []struct {
		name   string
		w, h   int
		frames []anim.Frame
	}{
		{name: "no frames", w: 2, h: 2},
		{name: "empty canvas", w: 0, h: 2, frames: []anim.Frame{full}},
		{
			name:   "first frame partial",
			w:      2,
			h:      2,
			frames: []anim.Frame{solidFrame(image.Rect(0, 0, 1, 1), red, 0, anim.DisposeNone, anim.BlendSource)},
		},
		{
			name: "frame outside canvas",
			w:    2,
			h:    2,
			frames: []anim.Frame{
				full,
				solidFrame(image.Rect(1, 1, 3, 3), red, 0, anim.DisposeNone, anim.BlendSource),
			},
		},
		{
			name:   "missing image",
			w:      2,
			h:      2,
			frames: []anim.Frame{{Bounds: image.Rect(0, 0, 2, 2)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Encode(&buf, tt.w, tt.h, tt.frames, 0)
			require.ErrorIs(t, err, ErrFormat)
			assert.Zero(t, buf.Len())
		})
	}
}

// rebuild re-frames chunks into a stream, recomputing CRCs.
func rebuild(t *testing.T, chunks []chunk) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(signature)
	for _, c := range chunks {
		require.NoError(t, writeChunk(&buf, c.typ, c.data))
	}
	return buf.Bytes()
}

func TestDecodeErrors(t *testing.T) {
	frames := []anim.Frame{
		solidFrame(image.Rect(0, 0, 2, 2), red, 0, anim.DisposeNone, anim.BlendSource),
		solidFrame(image.Rect(0, 0, 1, 1), green, 0, anim.DisposeNone, anim.BlendSource),
	}
	good := encode(t, 2, 2, frames, 0)
	chunks, err := readChunks(good)
	require.NoError(t, err)

	without := func(typ string) []chunk {
		var out []chunk
		for _, c := range chunks {
			if c.typ != typ {
				out = append(out, c)
			}
		}
		return out
	}

	tests := []struct {
		name string
		data func() []byte
	}{
		{name: "empty", data: func() []byte { return nil }},
		{name: "bad signature", data: func() []byte {
			b := bytes.Clone(good)
			b[1] = 'X'
			return b
		}},
		{name: "truncated", data: func() []byte { return good[:len(good)-6] }},
		{name: "bad crc", data: func() []byte {
			b := bytes.Clone(good)
			// Last byte of the IHDR CRC.
			b[len(signature)+8+13+3] ^= 0xff
			return b
		}},
		{name: "missing IHDR", data: func() []byte { return rebuild(t, without("IHDR")) }},
		{name: "no image data", data: func() []byte { return rebuild(t, without("IDAT")) }},
		{name: "fdAT without fcTL", data: func() []byte { return rebuild(t, without("fcTL")) }},
		{name: "frame outside canvas", data: func() []byte {
			mod := make([]chunk, len(chunks))
			copy(mod, chunks)
			for i, c := range mod {
				if c.typ == "fcTL" {
					d := bytes.Clone(c.data)
					binary.BigEndian.PutUint32(d[12:16], 5)
					mod[i] = chunk{typ: c.typ, data: d}
					break
				}
			}
			return rebuild(t, mod)
		}},
		{name: "bad dispose op", data: func() []byte {
			mod := make([]chunk, len(chunks))
			copy(mod, chunks)
			for i, c := range mod {
				if c.typ == "fcTL" {
					d := bytes.Clone(c.data)
					d[24] = 9
					mod[i] = chunk{typ: c.typ, data: d}
					break
				}
			}
			return rebuild(t, mod)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data())
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDecodeFeedsCompositor(t *testing.T) {
	frames := []anim.Frame{
		solidFrame(image.Rect(0, 0, 3, 3), red, 10*time.Millisecond, anim.DisposeNone, anim.BlendSource),
		solidFrame(image.Rect(1, 1, 2, 2), green, 10*time.Millisecond, anim.DisposeNone, anim.BlendSource),
	}
	img, err := Decode(encode(t, 3, 3, frames, 1))
	require.NoError(t, err)

	seq, err := anim.Build(img.Width, img.Height, img.Default, img.Frames, img.Loops)
	require.NoError(t, err)
	require.Equal(t, 2, seq.Len())
	assert.Equal(t, red, seq.Composited(1).NRGBAAt(0, 0))
	assert.Equal(t, green, seq.Composited(1).NRGBAAt(1, 1))
}
