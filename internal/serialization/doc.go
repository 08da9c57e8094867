// Package serialization encodes and decodes glyph model files.
//
// Two layouts are supported. The legacy layout is what the training side
// has always written; it carries no shapes, so the reader must know the
// architecture:
//
//	Legacy (all integers little-endian):
//	  [int32: label count]
//	  repeat label count: [int32: byte length][bytes]
//	  repeat per weight-bearing layer, in architecture order:
//	    [float32 × kernel elements, row-major][float32 × bias elements]
//
// The v2 layout prefixes the same body with a header describing every
// weight-bearing layer and appends a SHA-256 checksum, so a file trained
// for a different architecture is rejected instead of silently misread:
//
//	V2:
//	  [4 bytes: Magic "GLYF"]
//	  [4 bytes: Version (uint32 LE) = 2]
//	  [4 bytes: Flags (uint32 LE), reserved]
//	  [4 bytes: Input dim (uint32 LE)]
//	  [4 bytes: Layer count L (uint32 LE)]
//	  repeat L: [uint8 kind][uint8 rank][rank × uint32 dims][uint32 bias length]
//	  [legacy body: labels, weights]
//	  [32 bytes: SHA-256 of everything above]
//
// Decode detects the layout from the first four bytes. A legacy file can
// never start with "GLYF": read as a label count it exceeds MaxLabels.
//
// Example usage:
//
//	arch := nn.GlyphNet(nn.DefaultInputDim)
//	data, err := serialization.Encode(model, arch, serialization.FormatV2)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	model, err = serialization.Decode(data, arch)
//	if errors.Is(err, serialization.ErrCorruptModel) {
//	    // reject the file
//	}
package serialization
