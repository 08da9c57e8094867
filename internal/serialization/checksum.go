package serialization

import (
	"crypto/sha256"
	"fmt"
)

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares computed checksum against stored checksum.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed, stored [ChecksumSize]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

// splitChecksum separates a v2 payload from its trailing checksum and
// verifies it.
func splitChecksum(data []byte) ([]byte, error) {
	if len(data) < ChecksumSize {
		return nil, &ValidationError{
			Type:    "truncated",
			Field:   "checksum",
			Details: fmt.Sprintf("file is %d bytes, checksum alone needs %d", len(data), ChecksumSize),
		}
	}
	body := data[:len(data)-ChecksumSize]
	var stored [ChecksumSize]byte
	copy(stored[:], data[len(data)-ChecksumSize:])
	if err := ValidateChecksum(ComputeChecksum(body), stored); err != nil {
		return nil, err
	}
	return body, nil
}
