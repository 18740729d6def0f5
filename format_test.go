package encsearch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeEncoding_RoundTrip(t *testing.T) {
	c, err := NewRecordCipher(testKey("record"), AlgorithmAESGCM)
	require.NoError(t, err)
	envelope := c.Encrypt([]byte("7"))

	text := EncodeEnvelope(envelope)
	decoded, err := DecodeEnvelope(text)
	require.NoError(t, err)
	require.Equal(t, envelope, decoded)

	plain, err := c.Decrypt(decoded)
	require.NoError(t, err)
	require.Equal(t, "7", string(plain))
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	for _, s := range []string{"not base64!", "abc", "===="} {
		_, err := DecodeEnvelope(s)
		require.ErrorIs(t, err, ErrIntegrity, "input %q", s)
		require.ErrorIs(t, err, ErrInvalidEnvelope)
	}
}

func TestSplitEnvelope(t *testing.T) {
	data := make([]byte, nonceSize+16+3)
	for i := range data {
		data[i] = byte(i)
	}
	nonce, sealed, err := splitEnvelope(data, 16)
	require.NoError(t, err)
	require.Equal(t, data[:nonceSize], nonce)
	require.Equal(t, data[nonceSize:], sealed)

	_, _, err = splitEnvelope(data[:nonceSize+15], 16)
	require.ErrorIs(t, err, ErrInvalidEnvelope)
}
