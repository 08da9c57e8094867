package glyph

import (
	"fmt"
	"image"
)

// inkColumnFraction is the share of foreground pixels above which a column
// belongs to a glyph. Sparser columns are treated as noise between glyphs.
const inkColumnFraction = 0.05

// Segment splits a line of glyphs into single-glyph crops, left to right.
//
// The image is thresholded and cropped to the overall ink bounding box.
// Columns are then scanned: every maximal run of columns with more than 5%
// ink becomes one crop, taken from the grayscale image so each crop can be
// normalized on its own. It fails with ErrInvalidImage when there is no ink.
func (n *Normalizer) Segment(img image.Image) ([]*image.Gray, error) {
	gray := toGray(img)
	bin := threshold(gray, n.opts.Threshold*255)
	box, ok := boundingBox(bin)
	if !ok {
		return nil, fmt.Errorf("%w: no foreground after thresholding", ErrInvalidImage)
	}

	h := box.Dy()
	limit := inkColumnFraction * float64(h)
	var (
		segments []*image.Gray
		start    = -1
	)
	for x := box.Min.X; x <= box.Max.X; x++ {
		ink := false
		if x < box.Max.X {
			count := 0
			for y := box.Min.Y; y < box.Max.Y; y++ {
				if bin.Pix[bin.PixOffset(x, y)] != 0 {
					count++
				}
			}
			ink = float64(count) > limit
		}

		switch {
		case ink && start < 0:
			start = x
		case !ink && start >= 0:
			segments = append(segments, crop(gray, image.Rect(start, box.Min.Y, x, box.Max.Y)))
			start = -1
		}
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no column holds enough ink to form a glyph", ErrInvalidImage)
	}
	return segments, nil
}
