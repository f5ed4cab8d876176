// Package pixel converts decoded images into the layouts the loader hands
// out.
package pixel

import (
	"image"

	"github.com/disintegration/imaging"
)

// Premultiply returns img as an alpha-premultiplied *image.RGBA whose
// bounds start at the origin. Each channel becomes a/255*c truncated
// toward zero.
func Premultiply(img image.Image) *image.RGBA {
	src := imaging.Clone(img)
	dst := image.NewRGBA(src.Rect)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		f := float32(a) / 255
		dst.Pix[i+0] = uint8(f * float32(src.Pix[i+0]))
		dst.Pix[i+1] = uint8(f * float32(src.Pix[i+1]))
		dst.Pix[i+2] = uint8(f * float32(src.Pix[i+2]))
		dst.Pix[i+3] = a
	}
	return dst
}

// Straight returns img as a non-premultiplied *image.NRGBA whose bounds
// start at the origin.
func Straight(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}
