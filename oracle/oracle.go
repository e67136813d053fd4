// Package oracle holds the collaborators an attacker talks to: services that
// encrypt or decrypt with a key the attacker never sees and leak only a little
// information about what they did.
package oracle

import (
	aesgo "github.com/mario-areias/aes-oracle/aes-go"
	"github.com/mario-areias/aes-oracle/key"
)

// PaddingOracle reports whether the CBC decryption of a single ciphertext block
// chained from iv ends in valid PKCS#7 padding.
type PaddingOracle interface {
	CheckPadding(iv, block aesgo.Block) bool
}

// PaddingOracleFunc adapts a plain function to PaddingOracle.
type PaddingOracleFunc func(iv, block aesgo.Block) bool

func (f PaddingOracleFunc) CheckPadding(iv, block aesgo.Block) bool {
	return f(iv, block)
}

// EncryptionOracle encrypts attacker chosen plaintext under a hidden key.
type EncryptionOracle interface {
	Encrypt(plaintext []byte) []byte
}

// An oracle can be thought as a server the decrypt the output but doesn't return the plain text to its caller.
// For example, a web server that decrypts a cookie to check for user permissions.
// For that reason CBC has a Decrypt method that only returns an error to the caller.
//
// CBC is safe for concurrent use.
type CBC struct {
	aes *aesgo.AES
	iv  aesgo.Block
}

// NewCBC returns an oracle holding k. iv is the IV used by Encrypt.
func NewCBC(k key.Key, iv aesgo.Block) *CBC {
	return &CBC{aes: aesgo.New(k), iv: iv}
}

// Encrypt pads plaintext and returns the IV followed by the CBC ciphertext.
func (o *CBC) Encrypt(plaintext []byte) []byte {
	c, err := o.aes.EncryptCBC(aesgo.Pad(plaintext, aesgo.BlockSize), o.iv)
	if err != nil {
		// padded input is always block aligned
		panic(err)
	}
	return append(o.iv[:], c...)
}

// Decrypt takes the IV followed by the ciphertext.
func (o *CBC) Decrypt(encrypted []byte) error {
	// ignoring decrypted output because the caller shouldn't have access to it
	_, err := o.aes.DecryptWithMode(aesgo.CBC, encrypted)
	return err
}

func (o *CBC) CheckPadding(iv, block aesgo.Block) bool {
	return o.Decrypt(append(iv[:], block[:]...)) == nil
}

// ECB appends a secret to every chosen plaintext before encrypting it in ECB
// mode, the setup used by byte-at-a-time ECB decryption.
type ECB struct {
	aes    *aesgo.AES
	secret []byte
}

func NewECB(k key.Key, secret []byte) *ECB {
	s := make([]byte, len(secret))
	copy(s, secret)
	return &ECB{aes: aesgo.New(k), secret: s}
}

func (o *ECB) Encrypt(plaintext []byte) []byte {
	input := make([]byte, 0, len(plaintext)+len(o.secret))
	input = append(input, plaintext...)
	input = append(input, o.secret...)

	c, err := o.aes.EncryptECB(aesgo.Pad(input, aesgo.BlockSize))
	if err != nil {
		panic(err)
	}
	return c
}
