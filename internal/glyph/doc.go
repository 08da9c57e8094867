// Package glyph turns raster glyph images into the fixed-size tensors the
// network consumes.
//
// Normalization is deterministic: threshold (ink becomes foreground),
// crop to the ink bounding box, scale the longer side to the inner square
// (area averaging when shrinking, bilinear when enlarging), centre on a
// zero canvas and map to [0,1]. The result is always [1,D,D].
package glyph
