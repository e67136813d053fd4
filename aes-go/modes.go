package aesgo

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mario-areias/aes-oracle/key"
)

var (
	ErrInvalidLength = errors.New("input length is not a multiple of the block size")
	ErrUnknownMode   = errors.New("unknown mode")
)

type Mode int

const (
	ECB Mode = iota
	CBC
	CTR
)

func (m Mode) String() string {
	switch m {
	case ECB:
		return "ECB"
	case CBC:
		return "CBC"
	case CTR:
		return "CTR"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func checkLength(b []byte) error {
	if len(b)%BlockSize != 0 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(b))
	}
	return nil
}

// EncryptECB encrypts every block of src independently. src must already be
// padded to a multiple of BlockSize.
func (a *AES) EncryptECB(src []byte) ([]byte, error) {
	return a.ecb(src, a.EncryptBlock)
}

func (a *AES) DecryptECB(src []byte) ([]byte, error) {
	return a.ecb(src, a.DecryptBlock)
}

func (a *AES) ecb(src []byte, f func(Block) Block) ([]byte, error) {
	if err := checkLength(src); err != nil {
		return nil, err
	}

	result := make([]byte, 0, len(src))
	for _, b := range Split(src, BlockSize) {
		out := f(Block(b))
		result = append(result, out[:]...)
	}
	return result, nil
}

// EncryptCBC chains each plaintext block with the previous ciphertext block,
// starting from iv. src must already be padded.
func (a *AES) EncryptCBC(src []byte, iv Block) ([]byte, error) {
	if err := checkLength(src); err != nil {
		return nil, err
	}

	result := make([]byte, 0, len(src))
	chain := iv
	for _, b := range Split(src, BlockSize) {
		chain = a.EncryptBlock(Block(b).XOR(chain))
		result = append(result, chain[:]...)
	}
	return result, nil
}

// DecryptCBC reverses EncryptCBC. Padding is left in place.
func (a *AES) DecryptCBC(src []byte, iv Block) ([]byte, error) {
	if err := checkLength(src); err != nil {
		return nil, err
	}

	result := make([]byte, 0, len(src))
	chain := iv
	for _, b := range Split(src, BlockSize) {
		c := Block(b)
		p := a.DecryptBlock(c).XOR(chain)
		chain = c
		result = append(result, p[:]...)
	}
	return result, nil
}

// EncryptWithMode encrypts a whole message. ECB and CBC pad the plaintext; CBC
// prefixes a random IV and CTR a random 8 byte nonce to the output.
func (a *AES) EncryptWithMode(mode Mode, plaintext []byte) ([]byte, error) {
	switch mode {
	case ECB:
		return a.EncryptECB(Pad(plaintext, BlockSize))
	case CBC:
		iv := Block(key.RandomBytes(BlockSize))
		c, err := a.EncryptCBC(Pad(plaintext, BlockSize), iv)
		if err != nil {
			return nil, err
		}
		return append(iv[:], c...), nil
	case CTR:
		nonce := key.RandomBytes(nonceSize)
		c := a.NewCounter(binary.LittleEndian.Uint64(nonce)).Crypt(plaintext)
		return append(nonce, c...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

// DecryptWithMode reverses EncryptWithMode. ErrInvalidPadding is returned when
// the decrypted ECB or CBC plaintext is not correctly padded.
func (a *AES) DecryptWithMode(mode Mode, ciphertext []byte) ([]byte, error) {
	switch mode {
	case ECB:
		p, err := a.DecryptECB(ciphertext)
		if err != nil {
			return nil, err
		}
		return removePadding(p)
	case CBC:
		if len(ciphertext) < BlockSize {
			return nil, fmt.Errorf("%w: missing IV", ErrInvalidLength)
		}
		p, err := a.DecryptCBC(ciphertext[BlockSize:], Block(ciphertext[:BlockSize]))
		if err != nil {
			return nil, err
		}
		return removePadding(p)
	case CTR:
		if len(ciphertext) < nonceSize {
			return nil, fmt.Errorf("%w: missing nonce", ErrInvalidLength)
		}
		nonce := binary.LittleEndian.Uint64(ciphertext[:nonceSize])
		return a.NewCounter(nonce).Crypt(ciphertext[nonceSize:]), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

// removePadding never hands back plaintext whose padding failed to verify.
func removePadding(p []byte) ([]byte, error) {
	p, err := RemovePadding(p)
	if err != nil {
		return nil, err
	}
	return p, nil
}
