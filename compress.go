package encsearch

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	defaultCompressionThreshold = 1024
	minCompressionSavings       = 0.10

	// maxDecompressedSize caps what a single stored record may expand to.
	maxDecompressedSize = 64 << 20
)

// zstdMagic starts every zstd frame. Serialized records are JSON objects and
// start with '{', so the two payload kinds never collide.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// recordCodec holds a shared zstd encoder and decoder. Both are safe for
// concurrent EncodeAll and DecodeAll calls.
type recordCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var loadCodec = sync.OnceValues(func() (*recordCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &recordCodec{enc: enc, dec: dec}, nil
})

func compressZstd(data []byte) ([]byte, error) {
	c, err := loadCodec()
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// maybeCompress returns a zstd frame when data is at least threshold bytes
// and the frame is at least minCompressionSavings smaller. Any other case,
// including an encoder failure, yields data as is.
func maybeCompress(data []byte, threshold int, disabled bool) []byte {
	if disabled || len(data) == 0 || len(data) < threshold {
		return data
	}
	frame, err := compressZstd(data)
	if err != nil {
		return data
	}
	if float64(len(data)-len(frame)) < minCompressionSavings*float64(len(data)) {
		return data
	}
	return frame
}

// decompress expands a zstd frame and passes anything else through.
func decompress(data []byte) ([]byte, error) {
	if !isZstdFrame(data) {
		return data, nil
	}
	c, err := loadCodec()
	if err != nil {
		return nil, err
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil || len(out) > maxDecompressedSize {
		return nil, ErrDecompressionFailed
	}
	return out, nil
}

func isZstdFrame(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}
