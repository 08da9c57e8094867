// Package engine runs the forward pass of a decoded glyph model.
//
// All validation happens in New. Afterwards an Engine is immutable: Forward
// allocates its own intermediate tensors, so one Engine serves any number of
// goroutines without locking.
package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/born-ml/glyphnet/internal/backend/cpu"
	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/parallel"
	"github.com/born-ml/glyphnet/internal/tensor"
)

// ErrInputShape is returned by Forward for a tensor that is not [1,D,D].
var ErrInputShape = errors.New("input tensor shape mismatch")

// Options configures an Engine.
type Options struct {
	// InputDim is the side of the square input the caller will feed. Zero
	// accepts whatever the architecture declares.
	InputDim int
	// Parallel controls intra-layer parallelism.
	Parallel parallel.Config
}

// DefaultOptions returns options for nn.DefaultInputDim and all cores.
func DefaultOptions() Options {
	return Options{
		InputDim: nn.DefaultInputDim,
		Parallel: parallel.DefaultConfig(),
	}
}

// Engine executes a fixed architecture with one model's weights.
type Engine struct {
	arch    nn.Architecture
	plan    *nn.Plan
	model   *nn.Model
	backend *cpu.CPUBackend
}

// New checks that model fits arch and that arch accepts opts.InputDim.
// Every failure wraps nn.ErrConfiguration.
func New(arch nn.Architecture, model *nn.Model, opts Options) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", nn.ErrConfiguration)
	}
	plan, err := model.Check(arch)
	if err != nil {
		return nil, err
	}

	in := plan.Steps[0].In
	if in[0] != 1 || in[1] != in[2] {
		return nil, fmt.Errorf("%w: first layer expects %v, want a square single-channel input", nn.ErrConfiguration, in)
	}
	if opts.InputDim != 0 && opts.InputDim != in[1] {
		return nil, fmt.Errorf("%w: input dim %d, first Conv2D expects %d", nn.ErrConfiguration, opts.InputDim, in[1])
	}

	bound, err := arch.Bind(len(model.Labels))
	if err != nil {
		return nil, err
	}
	return &Engine{
		arch:    bound,
		plan:    plan,
		model:   model,
		backend: cpu.New(opts.Parallel),
	}, nil
}

// Forward runs the network on a [1,D,D] tensor and returns one score per
// label. The result is bit-identical for identical inputs.
func (e *Engine) Forward(x *tensor.Tensor) ([]float32, error) {
	if x == nil || !x.Shape().Equal(e.plan.Steps[0].In) {
		var got tensor.Shape
		if x != nil {
			got = x.Shape()
		}
		return nil, fmt.Errorf("%w: got %v, want %v", ErrInputShape, got, e.plan.Steps[0].In)
	}

	cur := x
	for i, step := range e.plan.Steps {
		switch step.Layer.Kind {
		case nn.KindConv:
			w := e.model.Weights[step.Weight]
			cur = e.activate(e.backend.Conv2D(cur, w.Kernel, w.Bias), step.Layer.Activation)
		case nn.KindDense:
			w := e.model.Weights[step.Weight]
			cur = e.activate(e.backend.Dense(cur, w.Kernel, w.Bias), step.Layer.Activation)
		case nn.KindPool:
			cur = e.backend.MaxPool2D(cur, step.Layer.PoolSize)
		case nn.KindDropout:
			// Identity at inference.
		case nn.KindFlatten:
			flat, err := cur.Reshape(cur.NumElements())
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			cur = flat
		default:
			return nil, fmt.Errorf("%w: layer %d has unknown kind %s", nn.ErrConfiguration, i, step.Layer.Kind)
		}
	}
	return cur.Data(), nil
}

// activate applies a fused activation. ReLU works in place on the freshly
// allocated layer output.
func (e *Engine) activate(x *tensor.Tensor, act nn.Activation) *tensor.Tensor {
	switch act {
	case nn.ReLU:
		return e.backend.ReLU(x)
	case nn.Softmax:
		return e.backend.Softmax(x)
	default:
		return x
	}
}

// Predict runs Forward and returns the index of the highest score (lowest
// index on ties) together with the scores.
func (e *Engine) Predict(x *tensor.Tensor) (int, []float32, error) {
	scores, err := e.Forward(x)
	if err != nil {
		return -1, nil, err
	}
	return tensor.Argmax(scores), scores, nil
}

// Labels returns a copy of the label table.
func (e *Engine) Labels() []string {
	return slices.Clone(e.model.Labels)
}

// Label returns the label of class index i.
func (e *Engine) Label(i int) string {
	return e.model.Labels[i]
}

// NumClasses returns the number of labels.
func (e *Engine) NumClasses() int {
	return len(e.model.Labels)
}

// InputDim returns the side of the square input tensor.
func (e *Engine) InputDim() int {
	return e.plan.Steps[0].In[1]
}

// Architecture returns the architecture bound to the model's label count.
func (e *Engine) Architecture() nn.Architecture {
	return e.arch
}

// NumParams returns the number of weight values in the model.
func (e *Engine) NumParams() int {
	return e.plan.NumParams()
}

// Parallel returns the intra-layer parallelism in use.
func (e *Engine) Parallel() parallel.Config {
	return e.backend.Parallel()
}
