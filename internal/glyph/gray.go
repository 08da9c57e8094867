package glyph

import (
	"image"
	"image/color"
)

// toGray converts img to an 8-bit grayscale image with its origin at (0,0).
// Pixels are composited over white first, so transparent areas read as
// background.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], src.Pix[i:i+b.Dx()])
		}
		return dst
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// Premultiplied: adding the uncovered share of white composites over it.
			bg := 0xffff - a
			lum := (19595*(r+bg) + 38470*(g+bg) + 7471*(bl+bg) + 1<<15) >> 24
			dst.Pix[y*dst.Stride+x] = uint8(lum)
		}
	}
	return dst
}

// threshold marks pixels at or below t as foreground (255) and the rest as
// background (0).
func threshold(src *image.Gray, t float64) *image.Gray {
	dst := image.NewGray(src.Rect)
	for i, v := range src.Pix {
		if float64(v) <= t {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// boundingBox returns the smallest rectangle containing every non-zero
// pixel of a binary image; ok is false when there is none.
func boundingBox(bin *image.Gray) (box image.Rectangle, ok bool) {
	b := bin.Rect
	if b.Empty() {
		return image.Rectangle{}, false
	}
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := bin.Pix[bin.PixOffset(b.Min.X, y) : bin.PixOffset(b.Max.X-1, y)+1]
		for i, v := range row {
			if v == 0 {
				continue
			}
			x := b.Min.X + i
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// crop copies r out of src into a new image with its origin at (0,0).
func crop(src *image.Gray, r image.Rectangle) *image.Gray {
	return toGray(src.SubImage(r))
}

// grayLevel converts v in [0,1] to an 8-bit gray level.
func grayLevel(v float32) color.Gray {
	switch {
	case v <= 0:
		return color.Gray{Y: 0}
	case v >= 1:
		return color.Gray{Y: 255}
	default:
		return color.Gray{Y: uint8(v*255 + 0.5)}
	}
}
