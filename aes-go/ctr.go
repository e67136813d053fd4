package aesgo

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
)

const nonceSize = 8

var ErrInvalidOffset = errors.New("offset out of range")

// counterBlock lays out the CTR input block as the nonce followed by the block
// counter, both little-endian 64 bit integers.
func counterBlock(nonce, counter uint64) Block {
	var b Block
	binary.LittleEndian.PutUint64(b[:nonceSize], nonce)
	binary.LittleEndian.PutUint64(b[nonceSize:], counter)
	return b
}

// Counter turns the block cipher into a seekable stream cipher. Keystream block i
// is the encryption of counterBlock(nonce, i), so any byte of the keystream can
// be produced without generating the bytes before it.
type Counter struct {
	aes   *AES
	nonce uint64
}

func (a *AES) NewCounter(nonce uint64) *Counter {
	return &Counter{aes: a, nonce: nonce}
}

// KeystreamBlock returns keystream block i directly.
func (c *Counter) KeystreamBlock(i uint64) Block {
	return c.aes.EncryptBlock(counterBlock(c.nonce, i))
}

// XORKeyStreamAt xors src with the keystream starting at byte offset and writes
// the result to dst. dst must be at least as long as src; they may overlap
// exactly.
func (c *Counter) XORKeyStreamAt(dst, src []byte, offset int) {
	if len(dst) < len(src) {
		panic("aesgo: output smaller than input")
	}
	if offset < 0 {
		panic("aesgo: negative keystream offset")
	}

	for len(src) > 0 {
		ks := c.KeystreamBlock(uint64(offset / BlockSize))
		n := copy(dst, XOR(src[:min(len(src), BlockSize-offset%BlockSize)], ks[offset%BlockSize:]))
		dst, src = dst[n:], src[n:]
		offset += n
	}
}

// Crypt encrypts or decrypts src from the start of the keystream. The output
// has the same length as src; no padding is involved.
func (c *Counter) Crypt(src []byte) []byte {
	dst := make([]byte, len(src))
	c.XORKeyStreamAt(dst, src, 0)
	return dst
}

// Edit replaces the ciphertext bytes at offset with the encryption of
// plaintext and returns the new ciphertext. Writing past the end extends it.
// ciphertext itself is not modified.
func (c *Counter) Edit(ciphertext []byte, offset int, plaintext []byte) ([]byte, error) {
	if offset < 0 || offset > len(ciphertext) {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidOffset, offset, len(ciphertext))
	}

	edited := make([]byte, max(len(ciphertext), offset+len(plaintext)))
	copy(edited, ciphertext)
	c.XORKeyStreamAt(edited[offset:offset+len(plaintext)], plaintext, offset)
	return edited, nil
}

// Stream returns a sequential cipher.Stream that walks the counter one block at
// a time from zero.
func (c *Counter) Stream() cipher.Stream {
	return &ctrStream{ctr: c, pos: BlockSize}
}

type ctrStream struct {
	ctr     *Counter
	counter uint64
	buf     Block
	pos     int // next unused byte of buf; BlockSize when buf is spent
}

func (s *ctrStream) next() {
	s.buf = s.ctr.aes.EncryptBlock(counterBlock(s.ctr.nonce, s.counter))
	s.counter++
	s.pos = 0
}

func (s *ctrStream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("aesgo: output smaller than input")
	}

	for i := range src {
		if s.pos == BlockSize {
			s.next()
		}
		dst[i] = src[i] ^ s.buf[s.pos]
		s.pos++
	}
}
