package serialization

import (
	"fmt"

	"github.com/born-ml/glyphnet/internal/nn"
)

// Validation limits for resource protection against malformed files.
const (
	MaxLabels    = 65536 // Maximum label count
	MaxLayers    = 256   // Maximum weight-bearing layers in a v2 header
	MaxLayerRank = 8     // Maximum kernel rank in a v2 header
)

// planFor binds the architecture to the decoded label count. A label count
// the architecture cannot accept means the file does not belong to it, so
// the error matches both ErrCorruptModel and nn.ErrConfiguration.
func planFor(arch nn.Architecture, numLabels int) (*nn.Plan, error) {
	bound, err := arch.Bind(numLabels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}
	plan, err := bound.Plan()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}
	return plan, nil
}

// ValidateHeader checks a v2 header against the plan of the architecture
// the caller expects. Any difference is architecture drift.
func ValidateHeader(h *Header, arch nn.Architecture, plan *nn.Plan) error {
	if dim := arch.InputDim(); h.InputDim != dim {
		return &ValidationError{
			Type:    "architecture_mismatch",
			Field:   "input_dim",
			Details: fmt.Sprintf("file was trained for %d, engine expects %d", h.InputDim, dim),
		}
	}
	if len(h.Layers) != len(plan.Weights) {
		return &ValidationError{
			Type:    "architecture_mismatch",
			Field:   "layers",
			Details: fmt.Sprintf("file has %d weight layers, architecture has %d", len(h.Layers), len(plan.Weights)),
		}
	}
	for i, spec := range plan.Weights {
		entry := h.Layers[i]
		if entry.Kind != spec.Kind ||
			!entry.Kernel.Equal(spec.Kernel) ||
			entry.BiasLen != spec.Bias.NumElements() {
			return &ValidationError{
				Type:  "architecture_mismatch",
				Field: fmt.Sprintf("layer %d", i),
				Details: fmt.Sprintf("file has %s%v+%d, architecture has %s%v+%d",
					entry.Kind, entry.Kernel, entry.BiasLen, spec.Kind, spec.Kernel, spec.Bias.NumElements()),
			}
		}
	}
	return nil
}

// validateLayerEntry checks one v2 header entry in isolation.
func validateLayerEntry(i int, e LayerEntry) error {
	if !e.Kind.HasWeights() {
		return &ValidationError{
			Type:    "invalid_layer",
			Field:   fmt.Sprintf("layer %d", i),
			Details: fmt.Sprintf("kind %s carries no weights", e.Kind),
		}
	}
	if err := e.Kernel.Validate(); err != nil || len(e.Kernel) == 0 {
		return &ValidationError{
			Type:    "invalid_layer",
			Field:   fmt.Sprintf("layer %d", i),
			Details: fmt.Sprintf("invalid kernel shape %v", e.Kernel),
		}
	}
	if e.BiasLen != e.Kernel[0] {
		return &ValidationError{
			Type:    "invalid_layer",
			Field:   fmt.Sprintf("layer %d", i),
			Details: fmt.Sprintf("bias length %d does not match %d outputs", e.BiasLen, e.Kernel[0]),
		}
	}
	return nil
}

// entryFor builds the header entry of a planned weight layer.
func entryFor(spec nn.WeightSpec) LayerEntry {
	return LayerEntry{
		Kind:    spec.Kind,
		Kernel:  spec.Kernel.Clone(),
		BiasLen: spec.Bias.NumElements(),
	}
}
