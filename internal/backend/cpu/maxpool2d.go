package cpu

import (
	"fmt"

	"github.com/born-ml/glyphnet/internal/parallel"
	"github.com/born-ml/glyphnet/internal/tensor"
)

// MaxPool2D performs non-overlapping 2D max pooling (window = stride = size).
//
// Input shape:  [channels, height, width]
// Output shape: [channels, height/size, width/size]
//
// Trailing rows and columns that do not fill a whole window are dropped
// (floor semantics).
//
// Example (2x2 pool):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.Tensor, size int) *tensor.Tensor {
	inputShape := input.Shape()
	if len(inputShape) != 3 {
		panic(fmt.Sprintf("maxpool2d: expected 3D input [C,H,W], got %v", inputShape))
	}
	if size <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid window size %d", size))
	}

	C, H, W := inputShape[0], inputShape[1], inputShape[2]
	HOut, WOut := H/size, W/size
	if HOut == 0 || WOut == 0 {
		panic(fmt.Sprintf("maxpool2d: window %d too large for input %dx%d", size, H, W))
	}

	output := tensor.Zeros(C, HOut, WOut)
	inputData := input.Data()
	outputData := output.Data()

	parallel.For(C, func(c int) {
		channelData := inputData[c*H*W : (c+1)*H*W]
		outChannel := outputData[c*HOut*WOut : (c+1)*HOut*WOut]

		for outH := 0; outH < HOut; outH++ {
			hStart := outH * size
			for outW := 0; outW < WOut; outW++ {
				wStart := outW * size

				maxVal := channelData[hStart*W+wStart]
				for kh := 0; kh < size; kh++ {
					rowData := channelData[(hStart+kh)*W : (hStart+kh+1)*W]
					for kw := 0; kw < size; kw++ {
						if v := rowData[wStart+kw]; v > maxVal {
							maxVal = v
						}
					}
				}
				outChannel[outH*WOut+outW] = maxVal
			}
		}
	}, cpu.par)

	return output
}
