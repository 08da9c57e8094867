package glyph

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		wantW     int
		wantH     int
		shrinking bool
	}{
		{"square upscale", 20, 20, 40, 40, false},
		{"exact", 40, 20, 40, 20, false},
		{"wide shrink", 100, 50, 40, 20, true},
		{"tall thin upscale", 2, 10, 8, 40, false},
		{"hairline shrink", 1, 400, 1, 40, true},
		{"single pixel", 1, 1, 40, 40, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, scale := fitSize(tt.w, tt.h, 40)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.Equal(t, tt.shrinking, scale < 1)
		})
	}
}

func TestAreaWeights_SumToOne(t *testing.T) {
	for _, c := range [][2]int{{3, 2}, {100, 40}, {41, 40}, {7, 7}, {5, 1}} {
		for d, spans := range areaWeights(c[0], c[1]) {
			sum := 0.0
			for _, s := range spans {
				assert.Less(t, s.idx, c[0])
				sum += s.weight
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "src=%d dst=%d output %d", c[0], c[1], d)
		}
	}

	w := areaWeights(3, 2)
	require.Len(t, w[0], 2)
	assert.Equal(t, 0, w[0][0].idx)
	assert.InDelta(t, 2.0/3, w[0][0].weight, 1e-9)
	assert.InDelta(t, 1.0/3, w[0][1].weight, 1e-9)
}

func TestAreaResize_BlockMeans(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	copy(src.Pix, []uint8{
		0, 255, 100, 100,
		255, 0, 100, 100,
		0, 0, 255, 255,
		0, 0, 255, 255,
	})

	dst := areaResize(src, 2, 2)

	assert.Equal(t, []uint8{128, 100, 0, 255}, dst.Pix)
}

// grayFromRows builds an image whose every row is row, h rows tall.
func grayFromRows(row []uint8, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, len(row), h))
	for y := 0; y < h; y++ {
		copy(img.Pix[y*img.Stride:], row)
	}
	return img
}

func TestScaleGlyph_ShrinkUsesAreaCoverage(t *testing.T) {
	// 5 -> 2 columns: output 0 covers source [0,2.5), output 1 covers
	// [2.5,5). The ink column 3 lies wholly under output 1, so output 0
	// stays 0; any interpolation kernel wide enough to shrink would leak
	// ink into it.
	src := grayFromRows([]uint8{0, 0, 0, 255, 0}, 5)

	shrunk := scaleGlyph(src, 2, 2, 0.4)

	require.Equal(t, image.Rect(0, 0, 2, 2), shrunk.Rect)
	assert.Equal(t, []uint8{0, 102, 0, 102}, shrunk.Pix)
}

func TestScaleGlyph_ThinStripesAverage(t *testing.T) {
	stripes := image.NewGray(image.Rect(0, 0, 80, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 80; x += 2 {
			stripes.Pix[y*stripes.Stride+x] = 255
		}
	}
	w, h, scale := fitSize(80, 80, 40)
	shrunk := scaleGlyph(stripes, w, h, scale)
	require.Equal(t, image.Rect(0, 0, 40, 40), shrunk.Rect)
	for _, v := range shrunk.Pix {
		assert.Equal(t, uint8(128), v)
	}
}

func TestScaleGlyph_EnlargeInterpolates(t *testing.T) {
	src := grayFromRows([]uint8{0, 255}, 1)

	grown := scaleGlyph(src, 8, 4, 4)
	require.Equal(t, image.Rect(0, 0, 8, 4), grown.Rect)

	// Pixel replication (area or nearest) only yields 0 and 255.
	replicated := areaResize(src, 8, 4)
	for _, v := range replicated.Pix {
		require.True(t, v == 0 || v == 255)
	}

	intermediate := 0
	for y := 0; y < 4; y++ {
		row := grown.Pix[y*grown.Stride : y*grown.Stride+8]
		assert.Equal(t, uint8(0), row[0])
		assert.Equal(t, uint8(255), row[7])
		for x := 1; x < 8; x++ {
			assert.GreaterOrEqual(t, row[x], row[x-1], "row %d is not a ramp", y)
			if row[x] > 0 && row[x] < 255 {
				intermediate++
			}
		}
	}
	assert.Positive(t, intermediate, "enlarging must interpolate between 0 and 255")
}

func TestScaleGlyph_EnlargeKeepsSolidBlock(t *testing.T) {
	solid := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range solid.Pix {
		solid.Pix[i] = 255
	}
	w, h, scale := fitSize(10, 10, 40)
	grown := scaleGlyph(solid, w, h, scale)
	require.Equal(t, image.Rect(0, 0, 40, 40), grown.Rect)
	for _, v := range grown.Pix {
		assert.Equal(t, uint8(255), v)
	}
}
