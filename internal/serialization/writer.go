package serialization

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/glyphnet/internal/nn"
)

// Encode writes model in the requested layout. The model is checked against
// arch first; failures wrap nn.ErrConfiguration.
func Encode(model *nn.Model, arch nn.Architecture, format Format) ([]byte, error) {
	switch format {
	case FormatLegacy:
		return EncodeLegacy(model, arch)
	case FormatV2:
		return EncodeV2(model, arch)
	default:
		return nil, fmt.Errorf("%w: unknown model format %v", nn.ErrConfiguration, format)
	}
}

// EncodeLegacy writes the headerless layout.
func EncodeLegacy(model *nn.Model, arch nn.Architecture) ([]byte, error) {
	plan, err := checkForEncoding(model, arch)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, bodySize(model, plan))
	buf = appendBody(buf, model)
	return buf, nil
}

// EncodeV2 writes the versioned layout with its header and checksum.
func EncodeV2(model *nn.Model, arch nn.Architecture) ([]byte, error) {
	plan, err := checkForEncoding(model, arch)
	if err != nil {
		return nil, err
	}
	dim := arch.InputDim()
	if dim == 0 {
		return nil, fmt.Errorf("%w: v2 needs a square single-channel input, got %v", nn.ErrConfiguration, arch.Input)
	}

	size := FixedHeaderSizeV2 + bodySize(model, plan) + ChecksumSize
	for _, spec := range plan.Weights {
		size += 2 + 4*len(spec.Kernel) + 4
	}

	buf := make([]byte, 0, size)
	buf = append(buf, MagicBytes...)
	buf = binary.LittleEndian.AppendUint32(buf, FormatVersionV2)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // flags
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dim))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(plan.Weights)))
	for _, spec := range plan.Weights {
		entry := entryFor(spec)
		buf = append(buf, uint8(entry.Kind), uint8(len(entry.Kernel)))
		for _, d := range entry.Kernel {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(d))
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(entry.BiasLen))
	}
	buf = appendBody(buf, model)

	sum := ComputeChecksum(buf)
	buf = append(buf, sum[:]...)
	return buf, nil
}

func checkForEncoding(model *nn.Model, arch nn.Architecture) (*nn.Plan, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", nn.ErrConfiguration)
	}
	if err := nn.ValidateLabels(model.Labels); err != nil {
		return nil, fmt.Errorf("%w: %v", nn.ErrConfiguration, err)
	}
	if len(model.Labels) > MaxLabels {
		return nil, fmt.Errorf("%w: %d labels, max %d", nn.ErrConfiguration, len(model.Labels), MaxLabels)
	}
	return model.Check(arch)
}

func bodySize(model *nn.Model, plan *nn.Plan) int {
	n := 4 + 4*plan.NumParams()
	for _, l := range model.Labels {
		n += 4 + len(l)
	}
	return n
}

// appendBody appends the label table and the weights, the part both
// layouts share.
func appendBody(buf []byte, model *nn.Model) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(model.Labels)))
	for _, l := range model.Labels {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(l)))
		buf = append(buf, l...)
	}
	for _, w := range model.Weights {
		buf = appendFloats(buf, w.Kernel.Data())
		buf = appendFloats(buf, w.Bias.Data())
	}
	return buf
}

func appendFloats(buf []byte, values []float32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
