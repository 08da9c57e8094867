// Package cpu implements the forward-pass kernels of the glyph network on
// the CPU: direct sliding-window convolution, max pooling, dense layers and
// activations.
//
// Kernels take single-image feature maps [C,H,W] (vectors [N] for dense
// layers). Shapes are validated once when an engine is planned, so a shape
// mismatch here is a programming error and panics.
//
// Work inside one kernel is split across goroutines by output element
// groups; every output value is accumulated by a single goroutine in a fixed
// order, so results do not depend on the worker count.
package cpu

import (
	"github.com/born-ml/glyphnet/internal/parallel"
)

// CPUBackend runs kernels with the configured intra-layer parallelism.
// It holds no mutable state and is safe for concurrent use.
type CPUBackend struct {
	par parallel.Config
}

// New creates a new CPU backend.
func New(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{par: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Parallel returns the parallel configuration.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.par
}
