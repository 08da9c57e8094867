package serialization

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/tensor"
)

// byteReader is a bounds-checked little-endian cursor over an encoded model.
// Every read that would run past the end returns a "truncated" error naming
// the field being read.
type byteReader struct {
	data []byte
	off  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) remaining() int {
	return len(r.data) - r.off
}

func (r *byteReader) take(n int, field string) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, &ValidationError{
			Type:    "truncated",
			Field:   field,
			Details: fmt.Sprintf("need %d bytes at offset %d, %d remain", n, r.off, r.remaining()),
		}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *byteReader) uint8(field string) (uint8, error) {
	b, err := r.take(1, field)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *byteReader) uint32(field string) (uint32, error) {
	b, err := r.take(4, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) int32(field string) (int32, error) {
	v, err := r.uint32(field)
	return int32(v), err
}

// float32s fills dst from the stream.
func (r *byteReader) float32s(dst []float32, field string) error {
	b, err := r.take(4*len(dst), field)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return nil
}

// readLabels reads the label table shared by both layouts.
func readLabels(r *byteReader) ([]string, error) {
	count, err := r.int32("label_count")
	if err != nil {
		return nil, err
	}
	switch {
	case count < 0:
		return nil, &ValidationError{Type: "invalid_label_count", Field: "label_count", Details: fmt.Sprintf("negative count %d", count)}
	case count == 0:
		return nil, &ValidationError{Type: "invalid_label_count", Field: "label_count", Details: "no labels"}
	case count > MaxLabels:
		return nil, &ValidationError{Type: "invalid_label_count", Field: "label_count", Details: fmt.Sprintf("got %d, max %d", count, MaxLabels)}
	case int(count)*4 > r.remaining():
		// Every label needs at least its length prefix.
		return nil, &ValidationError{
			Type:    "invalid_label_count",
			Field:   "label_count",
			Details: fmt.Sprintf("%d labels cannot fit in %d remaining bytes", count, r.remaining()),
		}
	}

	labels := make([]string, count)
	seen := make(map[string]int, count)
	for i := range labels {
		field := fmt.Sprintf("label %d", i)
		n, err := r.int32(field)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, &ValidationError{Type: "invalid_label", Field: field, Details: fmt.Sprintf("negative length %d", n)}
		}
		b, err := r.take(int(n), field)
		if err != nil {
			return nil, err
		}
		label := string(b)
		if j, dup := seen[label]; dup {
			return nil, &ValidationError{Type: "duplicate_label", Field: field, Details: fmt.Sprintf("%q already used by label %d", label, j)}
		}
		seen[label] = i
		labels[i] = label
	}
	return labels, nil
}

// readWeights reads the float section laid out by plan.
func readWeights(r *byteReader, plan *nn.Plan) ([]nn.Weights, error) {
	if need := 4 * plan.NumParams(); need != r.remaining() {
		typ := "truncated"
		if r.remaining() > need {
			typ = "trailing_bytes"
		}
		return nil, &ValidationError{
			Type:    typ,
			Field:   "weights",
			Details: fmt.Sprintf("architecture needs %d bytes of weights, %d remain", need, r.remaining()),
		}
	}

	weights := make([]nn.Weights, len(plan.Weights))
	for i, spec := range plan.Weights {
		kernel := tensor.Zeros(spec.Kernel...)
		bias := tensor.Zeros(spec.Bias...)
		if err := r.float32s(kernel.Data(), fmt.Sprintf("layer %d kernel", i)); err != nil {
			return nil, err
		}
		if err := r.float32s(bias.Data(), fmt.Sprintf("layer %d bias", i)); err != nil {
			return nil, err
		}
		weights[i] = nn.Weights{Kind: spec.Kind, Kernel: kernel, Bias: bias}
	}
	return weights, nil
}

// Decode decodes a model in either layout, detected from the magic bytes.
func Decode(data []byte, arch nn.Architecture) (*nn.Model, error) {
	if DetectFormat(data) == FormatV2 {
		return DecodeV2(data, arch)
	}
	return DecodeLegacy(data, arch)
}

// DecodeLegacy decodes the headerless layout. Weight shapes come from arch
// bound to the decoded label count, and the buffer must be consumed exactly.
func DecodeLegacy(data []byte, arch nn.Architecture) (*nn.Model, error) {
	r := newByteReader(data)
	labels, err := readLabels(r)
	if err != nil {
		return nil, err
	}
	plan, err := planFor(arch, len(labels))
	if err != nil {
		return nil, err
	}
	weights, err := readWeights(r, plan)
	if err != nil {
		return nil, err
	}
	return &nn.Model{Labels: labels, Weights: weights}, nil
}

// DecodeV2 decodes the versioned layout and rejects files whose header does
// not describe arch exactly.
func DecodeV2(data []byte, arch nn.Architecture) (*nn.Model, error) {
	h, r, err := parseV2(data)
	if err != nil {
		return nil, err
	}
	plan, err := planFor(arch, len(h.Labels))
	if err != nil {
		return nil, err
	}
	if err := ValidateHeader(h, arch, plan); err != nil {
		return nil, err
	}
	weights, err := readWeights(r, plan)
	if err != nil {
		return nil, err
	}
	return &nn.Model{Labels: h.Labels, Weights: weights}, nil
}

// Inspect parses and verifies a v2 file without an architecture. The weight
// section is checked for size only.
func Inspect(data []byte) (*Header, error) {
	h, _, err := parseV2(data)
	return h, err
}

// parseV2 verifies magic, version and checksum, parses the header and label
// table, and returns a reader positioned at the weight section. The weight
// section's size is checked against the header.
func parseV2(data []byte) (*Header, *byteReader, error) {
	if len(data) < FixedHeaderSizeV2+ChecksumSize {
		return nil, nil, &ValidationError{
			Type:    "truncated",
			Field:   "header",
			Details: fmt.Sprintf("file is %d bytes, minimum is %d", len(data), FixedHeaderSizeV2+ChecksumSize),
		}
	}
	if string(data[:len(MagicBytes)]) != MagicBytes {
		return nil, nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != FormatVersionV2 {
		return nil, nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, v, FormatVersionV2)
	}

	body, err := splitChecksum(data)
	if err != nil {
		return nil, nil, err
	}

	r := newByteReader(body)
	r.off = len(MagicBytes)
	h := &Header{}
	if h.Version, err = r.uint32("version"); err != nil {
		return nil, nil, err
	}
	if h.Flags, err = r.uint32("flags"); err != nil {
		return nil, nil, err
	}
	dim, err := r.uint32("input_dim")
	if err != nil {
		return nil, nil, err
	}
	if dim == 0 || dim > math.MaxInt32 {
		return nil, nil, &ValidationError{Type: "invalid_header", Field: "input_dim", Details: fmt.Sprintf("invalid dimension %d", dim)}
	}
	h.InputDim = int(dim)

	count, err := r.uint32("layer_count")
	if err != nil {
		return nil, nil, err
	}
	if count > MaxLayers {
		return nil, nil, &ValidationError{Type: "invalid_header", Field: "layer_count", Details: fmt.Sprintf("got %d, max %d", count, MaxLayers)}
	}

	h.Layers = make([]LayerEntry, count)
	for i := range h.Layers {
		entry, err := readLayerEntry(r, i)
		if err != nil {
			return nil, nil, err
		}
		h.Layers[i] = entry
	}

	if h.Labels, err = readLabels(r); err != nil {
		return nil, nil, err
	}

	if need := 4 * h.NumParams(); need != r.remaining() {
		typ := "truncated"
		if r.remaining() > need {
			typ = "trailing_bytes"
		}
		return nil, nil, &ValidationError{
			Type:    typ,
			Field:   "weights",
			Details: fmt.Sprintf("header declares %d bytes of weights, %d remain", need, r.remaining()),
		}
	}
	return h, r, nil
}

func readLayerEntry(r *byteReader, i int) (LayerEntry, error) {
	field := fmt.Sprintf("layer %d", i)
	kind, err := r.uint8(field)
	if err != nil {
		return LayerEntry{}, err
	}
	rank, err := r.uint8(field)
	if err != nil {
		return LayerEntry{}, err
	}
	if rank == 0 || rank > MaxLayerRank {
		return LayerEntry{}, &ValidationError{Type: "invalid_layer", Field: field, Details: fmt.Sprintf("invalid rank %d", rank)}
	}

	// The element count is bounded by the bytes left so a hostile header
	// cannot overflow it.
	limit := r.remaining() / 4
	elements := 1
	kernel := make(tensor.Shape, rank)
	for d := range kernel {
		v, err := r.uint32(field)
		if err != nil {
			return LayerEntry{}, err
		}
		if v == 0 || int64(v) > int64(limit) || elements > limit/int(v) {
			return LayerEntry{}, &ValidationError{
				Type:    "invalid_layer",
				Field:   field,
				Details: fmt.Sprintf("kernel dimension %d (%d) exceeds the file size", d, v),
			}
		}
		elements *= int(v)
		kernel[d] = int(v)
	}

	biasLen, err := r.uint32(field)
	if err != nil {
		return LayerEntry{}, err
	}
	if int64(biasLen) > int64(limit) {
		return LayerEntry{}, &ValidationError{Type: "invalid_layer", Field: field, Details: fmt.Sprintf("bias length %d exceeds the file size", biasLen)}
	}

	entry := LayerEntry{Kind: nn.Kind(kind), Kernel: kernel, BiasLen: int(biasLen)}
	if err := validateLayerEntry(i, entry); err != nil {
		return LayerEntry{}, err
	}
	return entry, nil
}
