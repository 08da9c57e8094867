package cpu

import (
	"fmt"

	"github.com/born-ml/glyphnet/internal/parallel"
	"github.com/born-ml/glyphnet/internal/tensor"
)

// Dense computes y = W·x + b.
//
// Input shape:  [in]
// Weight shape: [out, in]
// Bias shape:   [out]
// Output shape: [out]
//
// Output units are independent dot products and are spread over the workers.
func (cpu *CPUBackend) Dense(input, weight, bias *tensor.Tensor) *tensor.Tensor {
	weightShape := weight.Shape()
	if len(weightShape) != 2 {
		panic(fmt.Sprintf("dense: weight must be 2D [out,in], got %v", weightShape))
	}

	out, in := weightShape[0], weightShape[1]
	if input.NumElements() != in {
		panic(fmt.Sprintf("dense: input has %d elements, weight expects %d", input.NumElements(), in))
	}
	if bias.NumElements() != out {
		panic(fmt.Sprintf("dense: bias has %d elements, want %d", bias.NumElements(), out))
	}

	output := tensor.Zeros(out)
	x := input.Data()
	w := weight.Data()
	b := bias.Data()
	y := output.Data()

	parallel.For(out, func(o int) {
		row := w[o*in : (o+1)*in]
		sum := float32(0)
		for i, wv := range row {
			sum += wv * x[i]
		}
		y[o] = sum + b[o]
	}, cpu.par)

	return output
}
