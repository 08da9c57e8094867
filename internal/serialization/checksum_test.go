package serialization

import (
	"errors"
	"testing"
)

// TestComputeChecksum verifies SHA-256 checksum computation.
func TestComputeChecksum(t *testing.T) {
	data := []byte("test data")
	checksum1 := ComputeChecksum(data)
	checksum2 := ComputeChecksum(data)

	// Same data should produce same checksum
	if checksum1 != checksum2 {
		t.Error("Checksums should match for identical data")
	}

	// Different data should produce different checksum
	checksum3 := ComputeChecksum([]byte("different data"))
	if checksum1 == checksum3 {
		t.Error("Checksums should differ for different data")
	}
}

// TestValidateChecksum verifies checksum validation.
func TestValidateChecksum(t *testing.T) {
	checksum := ComputeChecksum([]byte("test data"))

	if err := ValidateChecksum(checksum, checksum); err != nil {
		t.Errorf("Expected no error for matching checksums, got: %v", err)
	}

	other := ComputeChecksum([]byte("other data"))
	err := ValidateChecksum(checksum, other)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got: %v", err)
	}
	if !errors.Is(err, ErrCorruptModel) {
		t.Errorf("Checksum mismatch should be a corrupt model, got: %v", err)
	}
}

func TestSplitChecksum_Short(t *testing.T) {
	_, err := splitChecksum(make([]byte, ChecksumSize-1))

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Type != "truncated" {
		t.Fatalf("Expected truncated ValidationError, got: %v", err)
	}
}
