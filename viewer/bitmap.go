package viewer

import (
	"image"
	"sync"

	"github.com/pkg/errors"

	"github.com/osbertngok/openrave/rimage"
)

// ErrNoImage is returned when saving before the first frame arrived.
var ErrNoImage = errors.New("no image received yet")

// Bitmap is the most recently decoded frame. It is replaced wholesale on every update and never
// modified in place, so a reader holding the returned image sees a complete frame.
type Bitmap struct {
	mu  sync.Mutex
	img *image.RGBA
}

// Update decodes a packed RGB buffer and replaces the bitmap with it.
func (b *Bitmap) Update(width, height int, pix []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	img, err := rimage.DecodeRGB(width, height, pix)
	if err != nil {
		return err
	}
	b.img = img
	return nil
}

// Image returns the current frame, or nil before the first update.
func (b *Bitmap) Image() image.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.img == nil {
		return nil
	}
	return b.img
}

// Save writes the current frame to path. The format follows the extension.
func (b *Bitmap) Save(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.img == nil {
		return ErrNoImage
	}
	return rimage.WriteImageToFile(path, b.img)
}
