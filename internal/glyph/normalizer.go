package glyph

import (
	"fmt"
	"image"

	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/tensor"
)

// Default normalization parameters.
const (
	DefaultPad       = 4
	DefaultThreshold = 0.7
	DefaultWideRatio = 2.0
)

// Options configures a Normalizer.
type Options struct {
	Dim       int     // side of the output square
	Pad       int     // minimum zero border around the glyph
	Threshold float64 // fraction of full intensity at or below which a pixel is ink
	WideRatio float64 // width/height above which an image is a line of glyphs
}

// DefaultOptions returns the options the network was trained with.
func DefaultOptions() Options {
	return Options{
		Dim:       nn.DefaultInputDim,
		Pad:       DefaultPad,
		Threshold: DefaultThreshold,
		WideRatio: DefaultWideRatio,
	}
}

// Normalizer converts glyph images to [1,D,D] tensors.
// It is immutable and safe for concurrent use.
type Normalizer struct {
	opts Options
}

// NewNormalizer validates opts and returns a Normalizer.
// Zero WideRatio selects the default.
func NewNormalizer(opts Options) (*Normalizer, error) {
	if opts.Pad < 0 {
		return nil, fmt.Errorf("%w: pad must be non-negative, got %d", nn.ErrConfiguration, opts.Pad)
	}
	if opts.Dim <= 2*opts.Pad {
		return nil, fmt.Errorf("%w: dim %d leaves no room inside a pad of %d", nn.ErrConfiguration, opts.Dim, opts.Pad)
	}
	if opts.Threshold <= 0 || opts.Threshold >= 1 {
		return nil, fmt.Errorf("%w: threshold must be in (0,1), got %g", nn.ErrConfiguration, opts.Threshold)
	}
	if opts.WideRatio == 0 {
		opts.WideRatio = DefaultWideRatio
	}
	if opts.WideRatio < 1 {
		return nil, fmt.Errorf("%w: wide ratio must be at least 1, got %g", nn.ErrConfiguration, opts.WideRatio)
	}
	return &Normalizer{opts: opts}, nil
}

// Dim returns the side of the produced tensors.
func (n *Normalizer) Dim() int {
	return n.opts.Dim
}

// Options returns the normalizer's options.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize thresholds, crops, scales and centres img into a [1,D,D]
// tensor with values in [0,1]. It fails with ErrInvalidImage when img has
// no ink.
func (n *Normalizer) Normalize(img image.Image) (*tensor.Tensor, error) {
	bin := threshold(toGray(img), n.opts.Threshold*255)
	box, ok := boundingBox(bin)
	if !ok {
		return nil, fmt.Errorf("%w: no foreground after thresholding", ErrInvalidImage)
	}
	glyph := crop(bin, box)

	d := n.opts.Dim
	inner := d - 2*n.opts.Pad
	tw, th, scale := fitSize(box.Dx(), box.Dy(), inner)
	scaled := scaleGlyph(glyph, tw, th, scale)

	out := tensor.Zeros(1, d, d)
	top, left := (d-th)/2, (d-tw)/2
	for y := 0; y < th; y++ {
		row := scaled.Pix[y*scaled.Stride : y*scaled.Stride+tw]
		for x, v := range row {
			out.Set(float32(v)/255, 0, top+y, left+x)
		}
	}
	return out, nil
}

// FromNormalized converts an image that already is a normalized glyph
// (exactly D×D, ink bright on dark) to a tensor, without thresholding or
// resizing.
func (n *Normalizer) FromNormalized(img image.Image) (*tensor.Tensor, error) {
	d := n.opts.Dim
	if b := img.Bounds(); b.Dx() != d || b.Dy() != d {
		return nil, fmt.Errorf("%w: normalized image must be %dx%d, got %dx%d", ErrInvalidImage, d, d, b.Dx(), b.Dy())
	}
	gray := toGray(img)
	out := tensor.Zeros(1, d, d)
	for y := 0; y < d; y++ {
		for x, v := range gray.Pix[y*gray.Stride : y*gray.Stride+d] {
			out.Set(float32(v)/255, 0, y, x)
		}
	}
	return out, nil
}

// Render converts a normalized [1,D,D] tensor back to a grayscale image.
// It is the inverse of FromNormalized up to 8-bit quantisation.
func Render(t *tensor.Tensor) (*image.Gray, error) {
	s := t.Shape()
	if len(s) != 3 || s[0] != 1 || s[1] != s[2] {
		return nil, fmt.Errorf("%w: expected a [1,D,D] tensor, got %v", ErrInvalidImage, s)
	}
	d := s[1]
	img := image.NewGray(image.Rect(0, 0, d, d))
	for y := 0; y < d; y++ {
		for x := 0; x < d; x++ {
			img.SetGray(x, y, grayLevel(t.At(0, y, x)))
		}
	}
	return img, nil
}

// IsWide reports whether img is wide enough to be treated as a line of
// glyphs rather than a single one: the whole number of times its height
// fits into its width must exceed WideRatio. With the default ratio of 2 a
// 250×100 image is one glyph and a 300×100 image is a line.
func (n *Normalizer) IsWide(img image.Image) bool {
	b := img.Bounds()
	if b.Dy() <= 0 {
		return false
	}
	return float64(b.Dx()/b.Dy()) > n.opts.WideRatio
}
