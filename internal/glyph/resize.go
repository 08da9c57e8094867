package glyph

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

// fitSize returns the size of a w×h glyph scaled so its longer side is
// inner pixels, and the scale factor. Both sides are clamped to [1, inner].
func fitSize(w, h, inner int) (tw, th int, scale float64) {
	scale = float64(inner) / float64(max(w, h))
	tw = clampInt(int(math.Round(float64(w)*scale)), 1, inner)
	th = clampInt(int(math.Round(float64(h)*scale)), 1, inner)
	return tw, th, scale
}

// scaleGlyph resizes src to tw×th: area averaging when shrinking
// (scale < 1), bilinear interpolation otherwise.
func scaleGlyph(src *image.Gray, tw, th int, scale float64) *image.Gray {
	if scale < 1 {
		return areaResize(src, tw, th)
	}
	return toGray(resize.Resize(uint(tw), uint(th), src, resize.Bilinear))
}

type span struct {
	idx    int
	weight float64
}

// areaWeights maps each of dst output pixels to the src pixels it covers,
// weighted by fractional coverage. The weights of every output sum to 1.
func areaWeights(src, dst int) [][]span {
	step := float64(src) / float64(dst)
	out := make([][]span, dst)
	for d := range out {
		lo := float64(d) * step
		hi := lo + step
		for s := int(lo); s < src && float64(s) < hi; s++ {
			cover := math.Min(hi, float64(s+1)) - math.Max(lo, float64(s))
			if cover > 1e-9 {
				out[d] = append(out[d], span{idx: s, weight: cover / step})
			}
		}
	}
	return out
}

// areaResize resamples src to tw×th by pixel-area relation: every output
// pixel is the coverage-weighted mean of the source pixels under it.
func areaResize(src *image.Gray, tw, th int) *image.Gray {
	xs := areaWeights(src.Rect.Dx(), tw)
	ys := areaWeights(src.Rect.Dy(), th)
	dst := image.NewGray(image.Rect(0, 0, tw, th))

	for ty, yspans := range ys {
		for tx, xspans := range xs {
			sum := 0.0
			for _, ysp := range yspans {
				row := src.Pix[ysp.idx*src.Stride:]
				for _, xsp := range xspans {
					sum += ysp.weight * xsp.weight * float64(row[xsp.idx])
				}
			}
			dst.Pix[ty*dst.Stride+tx] = uint8(clampInt(int(math.Round(sum)), 0, 255))
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
