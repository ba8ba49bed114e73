// Package snapshot holds rollback material captured before a deletion
// mutates anything. Blob content is kept zstd-compressed in memory until
// the deletion finalizes or rolls back.
package snapshot

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

// codecs returns the shared encoder and decoder.
// EncodeAll and DecodeAll are safe for concurrent use.
func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return encoder, decoder, codecErr
}

// Blob is a compressed copy of blob content.
type Blob struct {
	key        string
	size       int
	compressed []byte
}

// Capture compresses data for later restoration under key.
func Capture(key string, data []byte) (*Blob, error) {
	enc, _, err := codecs()
	if err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}
	return &Blob{
		key:        key,
		size:       len(data),
		compressed: enc.EncodeAll(data, make([]byte, 0, len(data)/2)),
	}, nil
}

// Key returns the blob key the content was read from.
func (b *Blob) Key() string {
	return b.key
}

// Size returns the uncompressed size in bytes.
func (b *Blob) Size() int {
	return b.size
}

// CompressedSize returns the bytes held in memory.
func (b *Blob) CompressedSize() int {
	return len(b.compressed)
}

// Bytes decompresses and returns the original content.
func (b *Blob) Bytes() ([]byte, error) {
	if b.size == 0 {
		return []byte{}, nil
	}
	_, dec, err := codecs()
	if err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}
	data, err := dec.DecodeAll(b.compressed, make([]byte, 0, b.size))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", b.key, err)
	}
	if len(data) != b.size {
		return nil, fmt.Errorf("decompress %s: size mismatch: got %d, want %d", b.key, len(data), b.size)
	}
	return data, nil
}
