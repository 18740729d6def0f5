package encsearch

import (
	"encoding/base64"
	"fmt"
)

// Envelope format:
// [nonce:12][aead ciphertext || tag:16]
//
// No header or version byte is carried, so envelopes written by other
// AES-GCM implementations with a prepended 96-bit nonce open unchanged.
// At rest, envelopes are stored as standard padded base64 text.

const (
	nonceSize = 12
)

// splitEnvelope separates the nonce from the sealed payload.
func splitEnvelope(envelope []byte, overhead int) (nonce, sealed []byte, err error) {
	if len(envelope) < nonceSize+overhead {
		err = ErrInvalidEnvelope
		return
	}
	nonce = envelope[:nonceSize]
	sealed = envelope[nonceSize:]
	return
}

// EncodeEnvelope renders an envelope as base64 text for text-oriented storage.
func EncodeEnvelope(envelope []byte) string {
	return base64.StdEncoding.EncodeToString(envelope)
}

// DecodeEnvelope parses base64 text written by EncodeEnvelope.
// Malformed text is reported as ErrIntegrity so callers treat it like tampering.
func DecodeEnvelope(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, ErrInvalidEnvelope)
	}
	return b, nil
}
