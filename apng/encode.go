package apng

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zlib"

	"github.com/meigma/assetpack/anim"
)

// Encode writes frames as an 8-bit RGBA APNG with a width x height canvas.
// The first frame must cover the whole canvas; it doubles as the default
// image. Delays are stored in milliseconds, capped at 65.535 seconds.
func Encode(w io.Writer, width, height int, frames []anim.Frame, loops uint) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: no frames", ErrFormat)
	}
	if width <= 0 || height <= 0 || width > math.MaxInt32 || height > math.MaxInt32 {
		return fmt.Errorf("%w: bad canvas %dx%d", ErrFormat, width, height)
	}
	if frames[0].Bounds != image.Rect(0, 0, width, height) {
		return fmt.Errorf("%w: first frame must cover the canvas", ErrFormat)
	}
	if loops > math.MaxUint32 {
		return fmt.Errorf("%w: loop count %d too large", ErrFormat, loops)
	}

	var buf bytes.Buffer
	buf.Write(signature)

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))  //nolint:gosec // checked above
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height)) //nolint:gosec // checked above
	ihdr[8] = 8                                           // bit depth
	ihdr[9] = 6                                           // truecolor with alpha
	if err := writeChunk(&buf, "IHDR", ihdr); err != nil {
		return err
	}

	actl := make([]byte, 8)
	binary.BigEndian.PutUint32(actl[0:4], uint32(len(frames))) //nolint:gosec // frame counts are small
	binary.BigEndian.PutUint32(actl[4:8], uint32(loops))
	if err := writeChunk(&buf, "acTL", actl); err != nil {
		return err
	}

	var seq uint32
	for i, f := range frames {
		if !f.Bounds.In(image.Rect(0, 0, width, height)) || f.Bounds.Empty() {
			return fmt.Errorf("%w: frame %d at %v outside canvas", ErrFormat, i, f.Bounds)
		}
		if err := writeChunk(&buf, "fcTL", frameControlBytes(seq, f)); err != nil {
			return err
		}
		seq++

		data, err := compressPixels(f)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if i == 0 {
			err = writeChunk(&buf, "IDAT", data)
		} else {
			fdat := make([]byte, 4+len(data))
			binary.BigEndian.PutUint32(fdat[:4], seq)
			copy(fdat[4:], data)
			seq++
			err = writeChunk(&buf, "fdAT", fdat)
		}
		if err != nil {
			return err
		}
	}
	if err := writeChunk(&buf, "IEND", nil); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func frameControlBytes(seq uint32, f anim.Frame) []byte {
	b := make([]byte, 26)
	binary.BigEndian.PutUint32(b[0:4], seq)
	binary.BigEndian.PutUint32(b[4:8], uint32(f.Bounds.Dx()))    //nolint:gosec // bounded by canvas
	binary.BigEndian.PutUint32(b[8:12], uint32(f.Bounds.Dy()))   //nolint:gosec // bounded by canvas
	binary.BigEndian.PutUint32(b[12:16], uint32(f.Bounds.Min.X)) //nolint:gosec // bounded by canvas
	binary.BigEndian.PutUint32(b[16:20], uint32(f.Bounds.Min.Y)) //nolint:gosec // bounded by canvas
	ms := min(f.Delay/time.Millisecond, math.MaxUint16)
	binary.BigEndian.PutUint16(b[20:22], uint16(ms)) //nolint:gosec // clamped above
	binary.BigEndian.PutUint16(b[22:24], 1000)
	b[24] = byte(f.Dispose)
	b[25] = byte(f.Blend)
	return b
}

// compressPixels renders f.Image as unfiltered RGBA scanlines and deflates
// them into IDAT payload.
func compressPixels(f anim.Frame) ([]byte, error) {
	if f.Image == nil {
		return nil, fmt.Errorf("%w: missing image", ErrFormat)
	}
	w, h := f.Bounds.Dx(), f.Bounds.Dy()
	src := imaging.Clone(f.Image)
	if src.Bounds().Dx() < w || src.Bounds().Dy() < h {
		return nil, fmt.Errorf("%w: image %v smaller than region %dx%d", ErrFormat, src.Bounds().Size(), w, h)
	}

	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	row := make([]byte, 1+4*w)
	for y := range h {
		copy(row[1:], src.Pix[y*src.Stride:y*src.Stride+4*w])
		if _, err := zw.Write(row); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
