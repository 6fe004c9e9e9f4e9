// Package rimage holds the image conversions between simulated sensor buffers and Go images.
package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// BytesPerPixelRGB is the stride of one pixel in a packed RGB buffer.
const BytesPerPixelRGB = 3

// ErrShortBuffer is returned when a packed buffer holds fewer bytes than its dimensions need.
var ErrShortBuffer = errors.New("rgb buffer shorter than width*height*3")

// DecodeRGB converts a packed, row-major, top-to-bottom RGB buffer into a new RGBA image.
// Bytes beyond width*height*3 are ignored.
func DecodeRGB(width, height int, pix []byte) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if len(pix) < width*height*BytesPerPixelRGB {
		return nil, errors.Wrapf(ErrShortBuffer, "%dx%d needs %d bytes, got %d",
			width, height, width*height*BytesPerPixelRGB, len(pix))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < width*height*BytesPerPixelRGB; i, j = i+BytesPerPixelRGB, j+4 {
		img.Pix[j] = pix[i]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// EncodeRGB packs any image into a row-major RGB buffer, dropping alpha.
func EncodeRGB(img image.Image) []byte {
	bounds := img.Bounds()
	out := make([]byte, 0, bounds.Dx()*bounds.Dy()*BytesPerPixelRGB)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out = append(out, c.R, c.G, c.B)
		}
	}
	return out
}
