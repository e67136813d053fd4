package key

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Size is the only supported key size in bytes (AES-128).
const Size = 16

var ErrInvalidKeySize = errors.New("invalid key size")

// Key is 128 bits of key material. It is a value type: copying a Key copies the
// material.
type Key [Size]byte

func (k Key) GetBytes() []byte {
	b := make([]byte, Size)
	copy(b, k[:])
	return b
}

// Bit128 returns a fresh random key.
func Bit128() Key {
	return Key([Size]byte(generateRandomBytes(Size)))
}

func NewKey(material [Size]byte) Key {
	return Key(material)
}

// FromBytes copies b into a Key. b must be exactly Size bytes long.
func FromBytes(b []byte) (Key, error) {
	if len(b) != Size {
		return Key{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(b), Size)
	}
	return Key([Size]byte(b)), nil
}

// RandomBytes returns n bytes read from crypto/rand. It is used for IVs and
// nonces as well as keys.
func RandomBytes(n int) []byte {
	return generateRandomBytes(n)
}

func generateRandomBytes(n int) []byte {
	randBytes := make([]byte, n)

	i, err := rand.Read(randBytes)
	if i != n || err != nil {
		panic("Could not generate random bytes")
	}

	return randBytes
}
