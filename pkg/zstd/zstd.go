// Package zstd wraps klauspost/compress for compressed combat log uploads and imports.
package zstd

import (
	"bytes"
	"errors"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var Extensions = []string{".zst", ".zstd"} //nolint:gochecknoglobals

// magic is the little endian zstd frame magic number 0xFD2FB528.
var magic = []byte{0x28, 0xb5, 0x2f, 0xfd} //nolint:gochecknoglobals

// maxDecodedSize bounds the memory a single decompressed log may use.
const maxDecodedSize = 1 << 30

var ErrDecompress = errors.New("failed to decompress data")

var (
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0), zstd.WithDecoderMaxMemory(maxDecodedSize)) //nolint:gochecknoglobals
	encoder, _ = zstd.NewWriter(nil)                                                                            //nolint:gochecknoglobals
)

// Compress a buffer.
func Compress(src []byte) []byte {
	return encoder.EncodeAll(src, make([]byte, 0, len(src)))
}

func Decompress(src []byte) ([]byte, error) {
	out, errDecode := decoder.DecodeAll(src, nil)
	if errDecode != nil {
		return nil, errors.Join(errDecode, ErrDecompress)
	}

	return out, nil
}

// IsCompressed reports whether src starts with a zstd frame.
func IsCompressed(src []byte) bool {
	return bytes.HasPrefix(src, magic)
}

// HasExtension reports whether name uses one of the zstd file extensions.
func HasExtension(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return true
		}
	}

	return false
}

// MaybeDecompress returns src unchanged unless it is a zstd frame.
func MaybeDecompress(src []byte) ([]byte, error) {
	if !IsCompressed(src) {
		return src, nil
	}

	return Decompress(src)
}
