package encsearch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrors_Identity(t *testing.T) {
	allErrors := []error{
		ErrIntegrity,
		ErrNotFound,
		ErrConfiguration,
		ErrValidation,
		ErrInvalidKeySize,
		ErrKeyMissing,
		ErrDuplicateKeys,
		ErrInvalidEnvelope,
		ErrDecompressionFailed,
		ErrMalformedRecord,
		ErrUnsupportedAlgorithm,
		ErrDuplicateRecord,
		ErrEngineClosed,
	}

	for i, err1 := range allErrors {
		require.Contains(t, err1.Error(), "encsearch:")
		for j, err2 := range allErrors {
			if i != j {
				require.False(t, errors.Is(err1, err2), "different errors should not be equal: %v and %v", err1, err2)
			}
		}
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Missing: []string{"name", "price"},
		Invalid: map[string]string{"category": "must be a string, got int"},
	}

	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "missing field(s): name, price")
	require.Contains(t, err.Error(), "category: must be a string")

	wrapped := fmt.Errorf("adding record: %w", err)
	require.ErrorIs(t, wrapped, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(wrapped, &verr))
	require.Equal(t, []string{"name", "price"}, verr.Missing)
}

func TestConfigError(t *testing.T) {
	err := configError(ErrInvalidKeySize, "record key has %d bytes", 16)
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, ErrInvalidKeySize)
	require.Contains(t, err.Error(), "record key has 16 bytes")

	err = configError(nil, "nil storage")
	require.ErrorIs(t, err, ErrConfiguration)
}
