package serialization

import (
	"fmt"
	"strings"

	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/tensor"
)

// Format constants.
const (
	MagicBytes        = "GLYF"
	FormatVersionV2   = 2  // v2: self-describing header with SHA-256 checksum
	FixedHeaderSizeV2 = 20 // magic, version, flags, input dim, layer count
	ChecksumSize      = 32 // SHA-256 checksum size (32 bytes)
)

// Format selects a model file layout.
type Format int

const (
	// FormatLegacy is the headerless layout written by the training side.
	FormatLegacy Format = iota
	// FormatV2 is the versioned, checksummed layout.
	FormatV2
)

// String returns the format name as accepted by ParseFormat.
func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatV2:
		return "v2"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses "legacy" or "v2" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "legacy":
		return FormatLegacy, nil
	case "v2":
		return FormatV2, nil
	default:
		return 0, fmt.Errorf("unknown model format %q (want legacy or v2)", s)
	}
}

// DetectFormat reports the layout of an encoded model from its magic bytes.
func DetectFormat(data []byte) Format {
	if len(data) >= len(MagicBytes) && string(data[:len(MagicBytes)]) == MagicBytes {
		return FormatV2
	}
	return FormatLegacy
}

// LayerEntry describes one weight-bearing layer in a v2 header.
type LayerEntry struct {
	Kind    nn.Kind
	Kernel  tensor.Shape
	BiasLen int
}

// NumElements returns the number of float32 values the layer contributes.
func (e LayerEntry) NumElements() int {
	return e.Kernel.NumElements() + e.BiasLen
}

// Header is the self-description of a v2 model file.
type Header struct {
	Version  uint32
	Flags    uint32
	InputDim int
	Layers   []LayerEntry
	Labels   []string
}

// NumParams returns the total number of weight values the file carries.
func (h *Header) NumParams() int {
	n := 0
	for _, l := range h.Layers {
		n += l.NumElements()
	}
	return n
}
