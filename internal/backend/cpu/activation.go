package cpu

import (
	"math"

	"github.com/born-ml/glyphnet/internal/tensor"
)

// ReLU applies max(0, x) element-wise, in place, and returns x.
func (cpu *CPUBackend) ReLU(x *tensor.Tensor) *tensor.Tensor {
	data := x.Data()
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return x
}

// Softmax returns exp(x_i - max(x)) / sum_j exp(x_j - max(x)) over a vector.
// Subtracting the maximum keeps exp from overflowing for large logits.
func (cpu *CPUBackend) Softmax(x *tensor.Tensor) *tensor.Tensor {
	result := tensor.Zeros(x.NumElements())
	softmaxFloat32(result.Data(), x.Data())
	return result
}

func softmaxFloat32(dst, src []float32) {
	if len(src) == 0 {
		return
	}

	maxVal := src[0]
	for _, v := range src[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	exps := make([]float64, len(src))
	sum := 0.0
	for i, v := range src {
		exps[i] = math.Exp(float64(v - maxVal))
		sum += exps[i]
	}
	for i, e := range exps {
		dst[i] = float32(e / sum)
	}
}
