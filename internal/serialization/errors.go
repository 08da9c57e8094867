package serialization

import (
	"errors"
	"fmt"
)

// ErrCorruptModel is wrapped by every decoding failure.
var ErrCorruptModel = errors.New("corrupt model")

// Common errors.
var (
	ErrChecksumMismatch   = fmt.Errorf("%w: checksum mismatch", ErrCorruptModel)
	ErrInvalidMagic       = fmt.Errorf("%w: invalid magic bytes", ErrCorruptModel)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported format version", ErrCorruptModel)
)

// ValidationError provides detailed information about decoding failures.
// It always matches ErrCorruptModel with errors.Is.
type ValidationError struct {
	Type    string // Type of error (e.g., "truncated", "trailing_bytes")
	Field   string // Part of the file involved (e.g., "labels", "layer 2")
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%v: %s: %s: %s", ErrCorruptModel, e.Type, e.Field, e.Details)
	}
	return fmt.Sprintf("%v: %s: %s", ErrCorruptModel, e.Type, e.Details)
}

// Unwrap returns ErrCorruptModel.
func (e *ValidationError) Unwrap() error {
	return ErrCorruptModel
}
