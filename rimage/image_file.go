package rimage

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// WriteImageToFile writes the image to the file, choosing the encoding from the extension. A name
// without an extension is written as PNG. Besides the formats imaging knows, .ppm is supported.
func WriteImageToFile(path string, img image.Image) error {
	if strings.EqualFold(filepath.Ext(path), ".ppm") {
		return writePPM(path, img)
	}
	if filepath.Ext(path) == "" {
		return errors.Wrapf(imaging.Save(img, path+".png"), "cannot write %q", path+".png")
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return errors.Wrapf(err, "cannot write %q", path)
	}
	return errors.Wrapf(imaging.Save(img, path), "cannot write %q", path)
}

func writePPM(path string, img image.Image) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot write %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return errors.Wrapf(ppm.Encode(f, img), "cannot write %q", path)
}

// ReadImageFromFile reads an image file of any format imaging understands, plus PPM.
func ReadImageFromFile(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %q", path)
	}
	return img, nil
}

// SameImage reports whether two images have identical bounds and pixels.
func SameImage(a, b image.Image) bool {
	if a.Bounds().Size() != b.Bounds().Size() {
		return false
	}
	na := imaging.Clone(a)
	nb := imaging.Clone(b)
	if len(na.Pix) != len(nb.Pix) {
		return false
	}
	for i := range na.Pix {
		if na.Pix[i] != nb.Pix[i] {
			return false
		}
	}
	return true
}
