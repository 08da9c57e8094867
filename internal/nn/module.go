// Package nn describes the glyph network: a closed set of layer kinds, the
// fixed architecture both sides of the model file agree on, and the decoded
// model (label table plus per-layer weights).
//
// Layers are plain values tagged by Kind. Every operation over layers is an
// explicit switch on Kind, so the set of kinds is exhaustive and adding one
// is a compile-visible change everywhere it matters.
package nn

import (
	"fmt"

	"github.com/born-ml/glyphnet/internal/tensor"
)

// Kind enumerates the layer variants.
type Kind uint8

// Layer kinds. The numeric values are part of the v2 model header.
const (
	KindConv Kind = iota + 1
	KindDense
	KindPool
	KindDropout
	KindFlatten
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConv:
		return "Conv2D"
	case KindDense:
		return "Dense"
	case KindPool:
		return "MaxPool2D"
	case KindDropout:
		return "Dropout"
	case KindFlatten:
		return "Flatten"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// HasWeights reports whether layers of this kind carry a kernel and a bias.
func (k Kind) HasWeights() bool {
	switch k {
	case KindConv, KindDense:
		return true
	default:
		return false
	}
}

// Activation is the element-wise function applied right after a Conv2D or
// Dense layer.
type Activation uint8

// Supported activations.
const (
	Identity Activation = iota
	ReLU
	Softmax
)

// String returns the activation name.
func (a Activation) String() string {
	switch a {
	case Identity:
		return "identity"
	case ReLU:
		return "relu"
	case Softmax:
		return "softmax"
	default:
		return fmt.Sprintf("Activation(%d)", uint8(a))
	}
}

// Layer is one node of the layer graph. Only the fields relevant to Kind
// are meaningful; use the constructors instead of literals.
type Layer struct {
	Kind Kind

	Filters int // Conv2D output channels
	KernelH int // Conv2D kernel height
	KernelW int // Conv2D kernel width

	Units int // Dense outputs; 0 means one per label (see Architecture.Bind)

	PoolSize int // MaxPool2D window and stride

	Rate float32 // Dropout rate (training only)

	Activation Activation
}

// OutShape returns the output shape of the layer for the given input shape.
// Feature maps are [channels, height, width]; vectors are [n].
func (l Layer) OutShape(in tensor.Shape) (tensor.Shape, error) {
	switch l.Kind {
	case KindConv:
		return convOutShape(l, in)
	case KindDense:
		return linearOutShape(l, in)
	case KindPool:
		return poolOutShape(l, in)
	case KindDropout:
		return in.Clone(), nil
	case KindFlatten:
		if len(in) == 0 {
			return nil, fmt.Errorf("flatten: empty input shape")
		}
		return tensor.Shape{in.NumElements()}, nil
	default:
		return nil, fmt.Errorf("unknown layer kind %d", l.Kind)
	}
}

// WeightShapes returns the kernel and bias shapes of a weight-bearing layer
// for the given input shape. ok is false for layers without weights.
func (l Layer) WeightShapes(in tensor.Shape) (kernel, bias tensor.Shape, ok bool) {
	switch l.Kind {
	case KindConv:
		if len(in) != 3 {
			return nil, nil, false
		}
		return tensor.Shape{l.Filters, in[0], l.KernelH, l.KernelW}, tensor.Shape{l.Filters}, true
	case KindDense:
		if len(in) != 1 {
			return nil, nil, false
		}
		return tensor.Shape{l.Units, in[0]}, tensor.Shape{l.Units}, true
	case KindPool, KindDropout, KindFlatten:
		return nil, nil, false
	default:
		return nil, nil, false
	}
}

// String returns a short description of the layer.
func (l Layer) String() string {
	switch l.Kind {
	case KindConv:
		return fmt.Sprintf("Conv2D(filters=%d, kernel=%dx%d, activation=%s)", l.Filters, l.KernelH, l.KernelW, l.Activation)
	case KindDense:
		units := fmt.Sprint(l.Units)
		if l.Units == 0 {
			units = "labels"
		}
		return fmt.Sprintf("Dense(units=%s, activation=%s)", units, l.Activation)
	case KindPool:
		return fmt.Sprintf("MaxPool2D(size=%d)", l.PoolSize)
	case KindDropout:
		return fmt.Sprintf("Dropout(rate=%.2f)", l.Rate)
	case KindFlatten:
		return "Flatten()"
	default:
		return l.Kind.String()
	}
}
