package nn

import (
	"fmt"

	"github.com/born-ml/glyphnet/internal/tensor"
)

// Conv2D returns a valid (unpadded, stride 1) 2D convolution layer.
//
// Input shape:  [in_channels, height, width]
// Kernel shape: [filters, in_channels, kernel_h, kernel_w]
// Bias shape:   [filters]
// Output shape: [filters, height-kernel_h+1, width-kernel_w+1]
func Conv2D(filters, kernelH, kernelW int, act Activation) Layer {
	return Layer{
		Kind:       KindConv,
		Filters:    filters,
		KernelH:    kernelH,
		KernelW:    kernelW,
		Activation: act,
	}
}

func convOutShape(l Layer, in tensor.Shape) (tensor.Shape, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("conv2d: expected 3D input [C,H,W], got %v", in)
	}
	if l.Filters <= 0 || l.KernelH <= 0 || l.KernelW <= 0 {
		return nil, fmt.Errorf("conv2d: invalid filters=%d kernel=%dx%d", l.Filters, l.KernelH, l.KernelW)
	}
	hOut := in[1] - l.KernelH + 1
	wOut := in[2] - l.KernelW + 1
	if hOut <= 0 || wOut <= 0 {
		return nil, fmt.Errorf("conv2d: kernel %dx%d too large for input %dx%d", l.KernelH, l.KernelW, in[1], in[2])
	}
	return tensor.Shape{l.Filters, hOut, wOut}, nil
}
