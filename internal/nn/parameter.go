package nn

import (
	"fmt"
	"slices"

	"github.com/born-ml/glyphnet/internal/tensor"
)

// Weights holds the parameters of one weight-bearing layer.
//
// Conv2D: Kernel [out, in, kh, kw], Bias [out].
// Dense:  Kernel [out, in],         Bias [out].
type Weights struct {
	Kind   Kind
	Kernel *tensor.Tensor
	Bias   *tensor.Tensor
}

// Model is a decoded model file: the label table and the weights of every
// weight-bearing layer in architecture order. Once handed to an engine it
// must not be modified.
type Model struct {
	Labels  []string
	Weights []Weights
}

// NewModel returns a zero-initialised model for the architecture bound to
// the given labels.
func NewModel(arch Architecture, labels []string) (*Model, error) {
	bound, err := arch.Bind(len(labels))
	if err != nil {
		return nil, err
	}
	plan, err := bound.Plan()
	if err != nil {
		return nil, err
	}
	m := &Model{
		Labels:  slices.Clone(labels),
		Weights: make([]Weights, len(plan.Weights)),
	}
	for i, spec := range plan.Weights {
		m.Weights[i] = Weights{
			Kind:   spec.Kind,
			Kernel: tensor.Zeros(spec.Kernel...),
			Bias:   tensor.Zeros(spec.Bias...),
		}
	}
	return m, nil
}

// Check verifies that the model fits the architecture: unique labels, one
// output per label and exactly the weight tensors the architecture implies.
// It returns the bound architecture's plan. Errors wrap ErrConfiguration.
func (m *Model) Check(arch Architecture) (*Plan, error) {
	if len(m.Labels) == 0 {
		return nil, fmt.Errorf("%w: model has no labels", ErrConfiguration)
	}
	if dup, ok := duplicateLabel(m.Labels); ok {
		return nil, fmt.Errorf("%w: duplicate label %q", ErrConfiguration, dup)
	}

	bound, err := arch.Bind(len(m.Labels))
	if err != nil {
		return nil, err
	}
	plan, err := bound.Plan()
	if err != nil {
		return nil, err
	}

	if len(m.Weights) != len(plan.Weights) {
		return nil, fmt.Errorf("%w: model has %d weight layers, architecture needs %d",
			ErrConfiguration, len(m.Weights), len(plan.Weights))
	}
	for i, spec := range plan.Weights {
		w := m.Weights[i]
		if w.Kind != spec.Kind {
			return nil, fmt.Errorf("%w: weight layer %d is %s, architecture has %s", ErrConfiguration, i, w.Kind, spec.Kind)
		}
		if w.Kernel == nil || !w.Kernel.Shape().Equal(spec.Kernel) {
			return nil, fmt.Errorf("%w: weight layer %d kernel shape %v, want %v", ErrConfiguration, i, shapeOf(w.Kernel), spec.Kernel)
		}
		if w.Bias == nil || !w.Bias.Shape().Equal(spec.Bias) {
			return nil, fmt.Errorf("%w: weight layer %d bias shape %v, want %v", ErrConfiguration, i, shapeOf(w.Bias), spec.Bias)
		}
	}
	return plan, nil
}

// Equal reports whether two models have identical labels and bit-identical weights.
func (m *Model) Equal(other *Model) bool {
	if !slices.Equal(m.Labels, other.Labels) || len(m.Weights) != len(other.Weights) {
		return false
	}
	for i, w := range m.Weights {
		o := other.Weights[i]
		if w.Kind != o.Kind || !w.Kernel.Equal(o.Kernel) || !w.Bias.Equal(o.Bias) {
			return false
		}
	}
	return true
}

// ValidateLabels checks a label table for encoding: non-empty labels made of
// single-byte (ASCII) characters, no duplicates.
func ValidateLabels(labels []string) error {
	if len(labels) == 0 {
		return fmt.Errorf("empty label table")
	}
	for i, l := range labels {
		if l == "" {
			return fmt.Errorf("label %d is empty", i)
		}
		for j := 0; j < len(l); j++ {
			if l[j] >= 0x80 {
				return fmt.Errorf("label %d (%q) is not single-byte ASCII", i, l)
			}
		}
	}
	if dup, ok := duplicateLabel(labels); ok {
		return fmt.Errorf("duplicate label %q", dup)
	}
	return nil
}

func duplicateLabel(labels []string) (string, bool) {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			return l, true
		}
		seen[l] = struct{}{}
	}
	return "", false
}

func shapeOf(t *tensor.Tensor) tensor.Shape {
	if t == nil {
		return nil
	}
	return t.Shape()
}
