package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/glyphnet/internal/tensor"
)

// DefaultInputDim is the side of the square glyph tensor the network is
// trained on.
const DefaultInputDim = 48

// Architecture is a sequential stack of layers over a [C,H,W] input.
//
// The model file does not record weight shapes (legacy layout), so encoder
// and decoder must agree on the architecture exactly: it is the schema of
// the float stream.
type Architecture struct {
	Input  tensor.Shape
	Layers []Layer
}

// GlyphNet returns the glyph classifier architecture for dim×dim input:
//
//	Conv(32,5x5) ReLU  Conv(32,5x5) ReLU  MaxPool(2)  Dropout
//	Conv(64,3x3) ReLU  Conv(64,3x3) ReLU  MaxPool(2)  Dropout
//	Flatten  Dense(256) ReLU  Dropout  Dense(labels) Softmax
//
// The last Dense layer is unbound until Bind is called with the label count.
func GlyphNet(dim int) Architecture {
	return Architecture{
		Input: tensor.Shape{1, dim, dim},
		Layers: []Layer{
			Conv2D(32, 5, 5, ReLU),
			Conv2D(32, 5, 5, ReLU),
			MaxPool2D(2),
			Dropout(0.25),

			Conv2D(64, 3, 3, ReLU),
			Conv2D(64, 3, 3, ReLU),
			MaxPool2D(2),
			Dropout(0.25),

			Flatten(),
			Dense(256, ReLU),
			Dropout(0.5),
			Dense(0, Softmax),
		},
	}
}

// InputDim returns the spatial size of the expected square input, or 0 if
// the input is not a square single-channel map.
func (a Architecture) InputDim() int {
	if len(a.Input) != 3 || a.Input[0] != 1 || a.Input[1] != a.Input[2] {
		return 0
	}
	return a.Input[1]
}

// NumClasses returns the width of the final Dense layer (0 when unbound).
func (a Architecture) NumClasses() int {
	last := a.lastDense()
	if last < 0 {
		return 0
	}
	return a.Layers[last].Units
}

func (a Architecture) lastDense() int {
	for i := len(a.Layers) - 1; i >= 0; i-- {
		if a.Layers[i].Kind == KindDense {
			return i
		}
	}
	return -1
}

// Bind returns a copy of the architecture with the final Dense layer sized
// to numClasses. Binding an already bound architecture to a different
// count is a configuration error.
func (a Architecture) Bind(numClasses int) (Architecture, error) {
	if numClasses <= 0 {
		return Architecture{}, fmt.Errorf("%w: label count must be positive, got %d", ErrConfiguration, numClasses)
	}
	last := a.lastDense()
	if last < 0 {
		return Architecture{}, fmt.Errorf("%w: architecture has no Dense output layer", ErrConfiguration)
	}
	if units := a.Layers[last].Units; units != 0 && units != numClasses {
		return Architecture{}, fmt.Errorf("%w: output layer has %d units, model has %d labels", ErrConfiguration, units, numClasses)
	}

	bound := Architecture{
		Input:  a.Input.Clone(),
		Layers: make([]Layer, len(a.Layers)),
	}
	copy(bound.Layers, a.Layers)
	bound.Layers[last].Units = numClasses
	return bound, nil
}

// Step is one layer of a planned architecture with its resolved shapes.
type Step struct {
	Layer  Layer
	In     tensor.Shape
	Out    tensor.Shape
	Weight int // index into Model.Weights, or -1 for weightless layers
}

// WeightSpec describes the tensors of one weight-bearing layer, in the
// order they appear in the serialized float stream.
type WeightSpec struct {
	Step   int
	Kind   Kind
	Kernel tensor.Shape
	Bias   tensor.Shape
}

// NumElements returns the number of float32 values the layer contributes.
func (s WeightSpec) NumElements() int {
	return s.Kernel.NumElements() + s.Bias.NumElements()
}

// Plan is an architecture with every shape resolved.
type Plan struct {
	Steps   []Step
	Weights []WeightSpec
}

// Output returns the final output shape.
func (p *Plan) Output() tensor.Shape {
	return p.Steps[len(p.Steps)-1].Out
}

// NumParams returns the total number of weight values.
func (p *Plan) NumParams() int {
	n := 0
	for _, w := range p.Weights {
		n += w.NumElements()
	}
	return n
}

// Plan resolves every layer's input/output shape and the weight layout.
// Errors wrap ErrConfiguration.
func (a Architecture) Plan() (*Plan, error) {
	if len(a.Input) != 3 {
		return nil, fmt.Errorf("%w: input must be [C,H,W], got %v", ErrConfiguration, a.Input)
	}
	if err := a.Input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: input: %v", ErrConfiguration, err)
	}
	if len(a.Layers) == 0 {
		return nil, fmt.Errorf("%w: architecture has no layers", ErrConfiguration)
	}
	if a.Layers[0].Kind != KindConv {
		return nil, fmt.Errorf("%w: first layer must be Conv2D, got %s", ErrConfiguration, a.Layers[0].Kind)
	}

	plan := &Plan{Steps: make([]Step, 0, len(a.Layers))}
	shape := a.Input.Clone()
	for i, l := range a.Layers {
		out, err := l.OutShape(shape)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d (%s): %v", ErrConfiguration, i, l.Kind, err)
		}

		step := Step{Layer: l, In: shape, Out: out, Weight: -1}
		if kernel, bias, ok := l.WeightShapes(shape); ok {
			step.Weight = len(plan.Weights)
			plan.Weights = append(plan.Weights, WeightSpec{
				Step:   i,
				Kind:   l.Kind,
				Kernel: kernel,
				Bias:   bias,
			})
		}
		plan.Steps = append(plan.Steps, step)
		shape = out
	}

	if len(shape) != 1 {
		return nil, fmt.Errorf("%w: network output must be a vector, got %v", ErrConfiguration, shape)
	}
	return plan, nil
}

// String lists the layers one per line.
func (a Architecture) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Input%v\n", a.Input)
	for i, l := range a.Layers {
		fmt.Fprintf(&b, "%2d: %s\n", i, l)
	}
	return b.String()
}
