package aesgo

import (
	"bytes"
	"errors"
	"fmt"
)

var ErrInvalidPadding = errors.New("invalid padding")

// Pad appends PKCS#7 padding to src. A full block of padding is added when src
// is already a multiple of blockSize, so the padding value is always in
// [1, blockSize]. src is not modified.
func Pad(src []byte, blockSize int) []byte {
	if blockSize < 1 || blockSize > 255 {
		panic(fmt.Sprintf("aesgo: invalid padding block size %d", blockSize))
	}
	padding := blockSize - len(src)%blockSize
	padded := make([]byte, len(src), len(src)+padding)
	copy(padded, src)
	return append(padded, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

// Unpad strips PKCS#7 padding. When the padding is absent or malformed the
// input is returned unchanged together with ErrInvalidPadding, so callers can
// tell "nothing removed" apart from "padding removed".
func Unpad(src []byte, blockSize int) ([]byte, error) {
	l := len(src)
	if l == 0 {
		return src, fmt.Errorf("%w: empty input", ErrInvalidPadding)
	}

	n := int(src[l-1])
	if n == 0 || n > blockSize || n > l {
		return src, fmt.Errorf("%w: padding byte %#02x", ErrInvalidPadding, n)
	}

	for _, b := range src[l-n:] {
		if int(b) != n {
			return src, fmt.Errorf("%w: inconsistent padding bytes", ErrInvalidPadding)
		}
	}

	return src[:l-n], nil
}

// RemovePadding strips PKCS#7 padding for the AES block size.
func RemovePadding(src []byte) ([]byte, error) {
	return Unpad(src, BlockSize)
}

// ValidPadding reports whether src ends in well formed PKCS#7 padding.
func ValidPadding(src []byte, blockSize int) bool {
	_, err := Unpad(src, blockSize)
	return err == nil
}
