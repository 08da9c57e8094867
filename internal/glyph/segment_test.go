package glyph

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_ThreeGlyphs(t *testing.T) {
	n := defaultNormalizer(t)

	img := paper(120, 40)
	ink(img, image.Rect(5, 5, 15, 35))
	ink(img, image.Rect(30, 8, 45, 30))
	ink(img, image.Rect(60, 5, 90, 35))
	// A speck between glyphs is below the column noise threshold.
	img.SetGray(52, 20, color.Gray{Y: 0})

	segments, err := n.Segment(img)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	widths := []int{segments[0].Rect.Dx(), segments[1].Rect.Dx(), segments[2].Rect.Dx()}
	assert.Equal(t, []int{10, 15, 30}, widths)
	for _, s := range segments {
		assert.Equal(t, 30, s.Rect.Dy(), "crops span the line's ink rows")
		assert.Equal(t, image.Point{}, s.Rect.Min)

		_, err := n.Normalize(s)
		assert.NoError(t, err)
	}
}

func TestSegment_TouchingRightEdge(t *testing.T) {
	n := defaultNormalizer(t)

	img := paper(50, 10)
	ink(img, image.Rect(0, 0, 10, 10))
	ink(img, image.Rect(40, 0, 50, 10))

	segments, err := n.Segment(img)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, 10, segments[1].Rect.Dx())
}

func TestSegment_Blank(t *testing.T) {
	n := defaultNormalizer(t)
	_, err := n.Segment(paper(100, 20))
	assert.True(t, errors.Is(err, ErrInvalidImage))
}
