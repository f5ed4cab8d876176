// Package apng decodes animated PNG files into frame descriptors for the
// compositor, and encodes them for tooling.
//
// Pixel decoding of every frame is delegated to image/png: each frame's
// data chunks are re-framed as a standalone PNG stream that shares the
// file's header and palette.
package apng

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/meigma/assetpack/anim"
)

// ErrFormat is returned for malformed PNG or APNG structure.
var ErrFormat = errors.New("apng: invalid format")

// Image is a decoded PNG, animated or not.
type Image struct {
	Width, Height int

	// Default is the image shown by decoders without APNG support.
	Default image.Image

	// Frames holds the animation frames in order; empty for a plain PNG.
	Frames []anim.Frame

	// Loops is the number of times to play the animation; 0 is forever.
	Loops uint
}

// Animated reports whether the image carries animation frames.
func (img *Image) Animated() bool {
	return len(img.Frames) > 0
}

type frameControl struct {
	width, height uint32
	x, y          uint32
	delayNum      uint16
	delayDen      uint16
	dispose       uint8
	blend         uint8
}

type pendingFrame struct {
	fc   frameControl
	data bytes.Buffer
}

// Decode parses a PNG or APNG stream.
func Decode(data []byte) (*Image, error) {
	chunks, err := readChunks(data)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || chunks[0].typ != "IHDR" || len(chunks[0].data) != 13 {
		return nil, fmt.Errorf("%w: missing IHDR", ErrFormat)
	}
	ihdr := chunks[0].data
	width := binary.BigEndian.Uint32(ihdr[0:4])
	height := binary.BigEndian.Uint32(ihdr[4:8])

	var (
		ancillary []chunk
		defData   bytes.Buffer
		animated  bool
		loops     uint32
		pending   []*pendingFrame
		cur       *pendingFrame
		seenIDAT  bool
	)
	for _, c := range chunks[1:] {
		switch c.typ {
		case "PLTE", "tRNS":
			if !seenIDAT {
				ancillary = append(ancillary, c)
			}
		case "acTL":
			if len(c.data) != 8 {
				return nil, fmt.Errorf("%w: bad acTL length %d", ErrFormat, len(c.data))
			}
			animated = true
			loops = binary.BigEndian.Uint32(c.data[4:8])
		case "fcTL":
			fc, err := parseFrameControl(c.data, width, height)
			if err != nil {
				return nil, err
			}
			cur = &pendingFrame{fc: fc}
			pending = append(pending, cur)
		case "IDAT":
			seenIDAT = true
			defData.Write(c.data)
			if cur != nil {
				cur.data.Write(c.data)
			}
		case "fdAT":
			if cur == nil || len(c.data) < 4 {
				return nil, fmt.Errorf("%w: fdAT without frame control", ErrFormat)
			}
			cur.data.Write(c.data[4:])
		}
	}
	if !seenIDAT {
		return nil, fmt.Errorf("%w: no image data", ErrFormat)
	}

	def, err := decodeFrame(ihdr, width, height, ancillary, defData.Bytes())
	if err != nil {
		return nil, fmt.Errorf("decode default image: %w", err)
	}
	img := &Image{
		Width:   int(width),
		Height:  int(height),
		Default: def,
	}
	if !animated {
		return img, nil
	}

	img.Loops = uint(loops)
	img.Frames = make([]anim.Frame, 0, len(pending))
	for i, p := range pending {
		if p.data.Len() == 0 {
			return nil, fmt.Errorf("%w: frame %d has no data", ErrFormat, i)
		}
		pix, err := decodeFrame(ihdr, p.fc.width, p.fc.height, ancillary, p.data.Bytes())
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", i, err)
		}
		x, y := int(p.fc.x), int(p.fc.y)
		img.Frames = append(img.Frames, anim.Frame{
			Bounds:  image.Rect(x, y, x+int(p.fc.width), y+int(p.fc.height)),
			Delay:   delay(p.fc.delayNum, p.fc.delayDen),
			Dispose: anim.DisposeOp(p.fc.dispose),
			Blend:   anim.BlendOp(p.fc.blend),
			Image:   pix,
		})
	}
	return img, nil
}

func parseFrameControl(data []byte, width, height uint32) (frameControl, error) {
	if len(data) != 26 {
		return frameControl{}, fmt.Errorf("%w: bad fcTL length %d", ErrFormat, len(data))
	}
	fc := frameControl{
		width:    binary.BigEndian.Uint32(data[4:8]),
		height:   binary.BigEndian.Uint32(data[8:12]),
		x:        binary.BigEndian.Uint32(data[12:16]),
		y:        binary.BigEndian.Uint32(data[16:20]),
		delayNum: binary.BigEndian.Uint16(data[20:22]),
		delayDen: binary.BigEndian.Uint16(data[22:24]),
		dispose:  data[24],
		blend:    data[25],
	}
	if fc.width == 0 || fc.height == 0 ||
		uint64(fc.x)+uint64(fc.width) > uint64(width) ||
		uint64(fc.y)+uint64(fc.height) > uint64(height) {
		return frameControl{}, fmt.Errorf("%w: frame region %dx%d+%d+%d outside %dx%d canvas",
			ErrFormat, fc.width, fc.height, fc.x, fc.y, width, height)
	}
	if fc.dispose > uint8(anim.DisposePrevious) || fc.blend > uint8(anim.BlendOver) {
		return frameControl{}, fmt.Errorf("%w: bad dispose/blend op %d/%d", ErrFormat, fc.dispose, fc.blend)
	}
	return fc, nil
}

// delay converts an APNG delay fraction to a duration. A zero denominator
// means hundredths of a second.
func delay(num, den uint16) time.Duration {
	if den == 0 {
		den = 100
	}
	return time.Duration(num) * time.Second / time.Duration(den)
}

// decodeFrame wraps compressed scanlines in a standalone PNG stream sized
// width x height and decodes it.
func decodeFrame(ihdr []byte, width, height uint32, ancillary []chunk, idat []byte) (image.Image, error) {
	var buf bytes.Buffer
	buf.Write(signature)

	hdr := bytes.Clone(ihdr)
	binary.BigEndian.PutUint32(hdr[0:4], width)
	binary.BigEndian.PutUint32(hdr[4:8], height)
	if err := writeChunk(&buf, "IHDR", hdr); err != nil {
		return nil, err
	}
	for _, c := range ancillary {
		if err := writeChunk(&buf, c.typ, c.data); err != nil {
			return nil, err
		}
	}
	if err := writeChunk(&buf, "IDAT", idat); err != nil {
		return nil, err
	}
	if err := writeChunk(&buf, "IEND", nil); err != nil {
		return nil, err
	}

	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return img, nil
}
