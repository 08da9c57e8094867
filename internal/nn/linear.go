package nn

import (
	"fmt"

	"github.com/born-ml/glyphnet/internal/tensor"
)

// Dense returns a fully connected layer computing y = W·x + b with W laid
// out [units, in]. units 0 binds the layer to the label count.
func Dense(units int, act Activation) Layer {
	return Layer{
		Kind:       KindDense,
		Units:      units,
		Activation: act,
	}
}

func linearOutShape(l Layer, in tensor.Shape) (tensor.Shape, error) {
	if len(in) != 1 {
		return nil, fmt.Errorf("dense: expected flat input, got %v (missing Flatten?)", in)
	}
	if l.Units <= 0 {
		return nil, fmt.Errorf("dense: units not bound (got %d)", l.Units)
	}
	return tensor.Shape{l.Units}, nil
}
