package nn

import (
	"fmt"

	"github.com/born-ml/glyphnet/internal/tensor"
)

// MaxPool2D returns a non-overlapping max pooling layer (window = stride =
// size). A trailing row or column that does not fill a window is dropped.
func MaxPool2D(size int) Layer {
	return Layer{Kind: KindPool, PoolSize: size}
}

// Dropout returns a dropout layer. It is the identity at inference time
// and carries no weights.
func Dropout(rate float32) Layer {
	return Layer{Kind: KindDropout, Rate: rate}
}

// Flatten returns a layer reshaping [C,H,W] feature maps into a vector.
func Flatten() Layer {
	return Layer{Kind: KindFlatten}
}

func poolOutShape(l Layer, in tensor.Shape) (tensor.Shape, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("maxpool2d: expected 3D input [C,H,W], got %v", in)
	}
	if l.PoolSize <= 0 {
		return nil, fmt.Errorf("maxpool2d: invalid size %d", l.PoolSize)
	}
	hOut, wOut := in[1]/l.PoolSize, in[2]/l.PoolSize
	if hOut == 0 || wOut == 0 {
		return nil, fmt.Errorf("maxpool2d: window %d too large for input %dx%d", l.PoolSize, in[1], in[2])
	}
	return tensor.Shape{in[0], hOut, wOut}, nil
}
