package cpu

import (
	"fmt"

	"github.com/born-ml/glyphnet/internal/parallel"
	"github.com/born-ml/glyphnet/internal/tensor"
)

// Conv2D performs a valid (no padding, stride 1) 2D cross-correlation.
//
// Input shape:  [in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Bias shape:   [out_channels]
// Output shape: [out_channels, height-kernel_h+1, width-kernel_w+1]
//
// Kernels in this network are at most 5x5 with at most 128 channels, so the
// output is accumulated directly with a sliding window. Output rows of every
// channel are independent and are spread over the workers.
func (cpu *CPUBackend) Conv2D(input, kernel, bias *tensor.Tensor) *tensor.Tensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 3 {
		panic(fmt.Sprintf("conv2d: input must be 3D [C,H,W], got %v", inputShape))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %v", kernelShape))
	}

	CIn, H, W := inputShape[0], inputShape[1], inputShape[2]
	COut, CInK, KH, KW := kernelShape[0], kernelShape[1], kernelShape[2], kernelShape[3]

	if CIn != CInK {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", CIn, CInK))
	}
	if bias.NumElements() != COut {
		panic(fmt.Sprintf("conv2d: bias has %d elements, want %d", bias.NumElements(), COut))
	}

	HOut := H - KH + 1
	WOut := W - KW + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: kernel %dx%d larger than input %dx%d", KH, KW, H, W))
	}

	output := tensor.Zeros(COut, HOut, WOut)

	inputData := input.Data()
	kernelData := kernel.Data()
	biasData := bias.Data()
	outputData := output.Data()

	parallel.ForBatch(COut, HOut, func(oc, oh int) {
		kBase := oc * CIn * KH * KW
		row := outputData[(oc*HOut+oh)*WOut : (oc*HOut+oh+1)*WOut]

		for ow := 0; ow < WOut; ow++ {
			sum := float32(0)
			for ic := 0; ic < CIn; ic++ {
				plane := inputData[ic*H*W : (ic+1)*H*W]
				kPlane := kernelData[kBase+ic*KH*KW : kBase+(ic+1)*KH*KW]
				for kh := 0; kh < KH; kh++ {
					inRow := plane[(oh+kh)*W+ow : (oh+kh)*W+ow+KW]
					kRow := kPlane[kh*KW : (kh+1)*KW]
					for kw, kv := range kRow {
						sum += kv * inRow[kw]
					}
				}
			}
			row[ow] = sum + biasData[oc]
		}
	}, cpu.par)

	return output
}
