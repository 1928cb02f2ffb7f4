// Package raster wraps the image operations scanmark needs: reading page
// dimensions, loading/saving scans, upright rotation, scaling, merging page
// sequences into a single sheet, and thresholding for the barcode engine.
// The core engine never inspects pixels itself; it only consumes the values
// produced here.
package raster

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	// Register tiff and bmp decoders; png/jpeg/gif come with image.Decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Dimensions returns the pixel width and height of an image file without
// decoding the full raster.
func Dimensions(path string) (w, h int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Load decodes a page image from disk.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return img, nil
}

// Save writes an image, with the format inferred from the extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Rotate rotates the page clockwise by a canonical amount (0, 90, 180 or
// 270 degrees). Any other amount is a caller bug and returns the image
// unchanged.
func Rotate(img image.Image, degrees int) image.Image {
	switch degrees {
	case 90:
		// imaging rotates counter-clockwise, so invert.
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// Scale resizes the image by a uniform factor. Factors <= 0 or == 1 are
// no-ops.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx())*factor + 0.5)
	h := int(float64(b.Dy())*factor + 0.5)
	if w < 1 || h < 1 {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// Merge stacks an ordered page list vertically into one sheet on a white
// canvas, after rotating each page upright and applying the scale factor.
// rotations must be the same length as pages; a nil slice means no rotation.
func Merge(pages []image.Image, rotations []int, scale float64) (image.Image, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("merge: no pages")
	}
	prepared := make([]image.Image, len(pages))
	width, height := 0, 0
	for i, p := range pages {
		if rotations != nil {
			p = Rotate(p, rotations[i])
		}
		p = Scale(p, scale)
		prepared[i] = p
		b := p.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	y := 0
	for _, p := range prepared {
		dc.DrawImage(p, 0, y)
		y += p.Bounds().Dy()
	}
	return dc.Image(), nil
}
