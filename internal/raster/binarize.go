package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Binarize converts the image to black-and-white using a global Otsu
// threshold over the grayscale histogram. The barcode engine retries on this
// when its own binarizer finds nothing, which recovers codes printed on
// tinted paper or photographed under uneven light.
func Binarize(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()

	var hist [256]int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[color.GrayModel.Convert(gray.At(x, y)).(color.Gray).Y]++
		}
	}

	threshold := otsu(hist, b.Dx()*b.Dy())

	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := color.GrayModel.Convert(gray.At(x, y)).(color.Gray).Y
			if v > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// otsu picks the threshold maximizing between-class variance.
func otsu(hist [256]int, total int) uint8 {
	if total == 0 {
		return 127
	}
	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var maxVar float64
	var threshold uint8
	for i, c := range hist {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(c)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			threshold = uint8(i)
		}
	}
	return threshold
}
