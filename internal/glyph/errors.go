package glyph

import "errors"

// ErrInvalidImage is returned for images that cannot be turned into a
// glyph tensor: no ink after thresholding, or a pre-normalized image of the
// wrong size.
var ErrInvalidImage = errors.New("invalid glyph image")
