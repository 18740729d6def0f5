package encsearch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrIntegrity indicates AEAD authentication failed (tampered, truncated, or wrong key).
	ErrIntegrity = errors.New("encsearch: integrity check failed")

	// ErrNotFound indicates the requested record id or token is absent.
	ErrNotFound = errors.New("encsearch: not found")

	// ErrConfiguration indicates key material or engine settings are missing or malformed.
	ErrConfiguration = errors.New("encsearch: configuration error")

	// ErrValidation indicates ingestion input is missing required fields or is malformed.
	// Returned errors are *ValidationError values; test with errors.Is.
	ErrValidation = errors.New("encsearch: validation failed")

	// ErrInvalidKeySize indicates a key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.New("encsearch: key must be 32 bytes")

	// ErrKeyMissing indicates the KeyStore has no key for a purpose.
	ErrKeyMissing = errors.New("encsearch: key missing")

	// ErrDuplicateKeys indicates two purposes were given the same key material.
	ErrDuplicateKeys = errors.New("encsearch: keys must be distinct per purpose")

	// ErrInvalidEnvelope indicates the envelope is too short or not valid base64.
	ErrInvalidEnvelope = errors.New("encsearch: invalid envelope format")

	// ErrDecompressionFailed indicates zstd decompression of a record payload failed.
	ErrDecompressionFailed = errors.New("encsearch: decompression failed")

	// ErrMalformedRecord indicates an authenticated payload is not a valid serialized record.
	ErrMalformedRecord = errors.New("encsearch: malformed record payload")

	// ErrUnsupportedAlgorithm indicates an unknown AEAD algorithm name.
	ErrUnsupportedAlgorithm = errors.New("encsearch: unsupported algorithm")

	// ErrDuplicateRecord indicates a record with the same id already exists.
	ErrDuplicateRecord = errors.New("encsearch: record already exists")

	// ErrInvalidIdentifier indicates a table or key prefix unsafe for interpolation into queries.
	ErrInvalidIdentifier = errors.New("encsearch: invalid identifier")

	// ErrEngineClosed indicates the engine was used after Close() was called.
	ErrEngineClosed = errors.New("encsearch: engine is closed")
)

// ValidationError lists the fields that prevented a record from being ingested.
type ValidationError struct {
	Missing []string          // required fields not present
	Invalid map[string]string // field -> reason
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Missing)+len(e.Invalid))
	if len(e.Missing) > 0 {
		parts = append(parts, "missing field(s): "+strings.Join(e.Missing, ", "))
	}
	fields := make([]string, 0, len(e.Invalid))
	for f := range e.Invalid {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Invalid[f]))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports ErrValidation as a match so callers need not type-assert.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// configError wraps a cause with ErrConfiguration.
func configError(cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrConfiguration, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrConfiguration, msg, cause)
}
