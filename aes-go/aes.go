package aesgo

import (
	"crypto/cipher"

	"github.com/mario-areias/aes-oracle/key"
)

// BlockSize is the AES block size in bytes.
const BlockSize = 16

// Block is a single 16 byte AES block, stored column-major as in FIPS-197.
type Block [BlockSize]byte

// XOR returns b ^ o.
func (b Block) XOR(o Block) Block {
	var x Block
	for i := range b {
		x[i] = b[i] ^ o[i]
	}
	return x
}

// AES is an AES-128 cipher with its round keys precomputed. It is safe for
// concurrent use.
type AES struct {
	schedule Schedule
}

func New(k key.Key) *AES {
	return &AES{schedule: expandKey(k)}
}

// NewCipher mirrors crypto/aes.NewCipher so the block core can be plugged into
// any cipher.BlockMode or cipher.Stream.
func NewCipher(k []byte) (cipher.Block, error) {
	kk, err := key.FromBytes(k)
	if err != nil {
		return nil, err
	}
	return New(kk), nil
}

// EncryptBlock encrypts a single block under k. Use New when encrypting more
// than one block with the same key.
func EncryptBlock(plaintext Block, k key.Key) Block {
	return New(k).EncryptBlock(plaintext)
}

// DecryptBlock decrypts a single block under k.
func DecryptBlock(ciphertext Block, k key.Key) Block {
	return New(k).DecryptBlock(ciphertext)
}

func (a *AES) EncryptBlock(b Block) Block {
	state := convertArrayToMatrix(b)

	for round := 0; round <= rounds; round++ {
		state = a.encryptRound(round, state)
	}

	return convertMatrixToArray(state)
}

func (a *AES) DecryptBlock(b Block) Block {
	state := convertArrayToMatrix(b)

	for round := rounds; round >= 0; round-- {
		state = a.decryptRound(round, state)
	}

	return convertMatrixToArray(state)
}

func (a *AES) encryptRound(round int, state [4][4]byte) [4][4]byte {
	key := a.roundKey(round)

	if round == 0 {
		return addRoundKey(state, key)
	}

	r := subMatrix(state)
	r = shiftRows(r)
	if round < rounds {
		r = mixColumns(r)
	}
	return addRoundKey(r, key)
}

// decryptRound runs the inverse rounds in the order 10, 9..1, 0. The last
// round key is added alone, the middle rounds end in invMixColumns and round 0
// has no column mixing.
func (a *AES) decryptRound(round int, state [4][4]byte) [4][4]byte {
	key := a.roundKey(round)

	if round == rounds {
		return addRoundKey(state, key)
	}

	r := invShiftRows(state)
	r = invSubMatrix(r)
	r = addRoundKey(r, key)
	if round > 0 {
		r = invMixColumns(r)
	}
	return r
}

func (a *AES) roundKey(round int) [4][4]byte {
	return convertArrayToMatrix(a.schedule[round])
}

// BlockSize, Encrypt and Decrypt implement cipher.Block.
func (a *AES) BlockSize() int {
	return BlockSize
}

func (a *AES) Encrypt(dst, src []byte) {
	if len(src) < BlockSize || len(dst) < BlockSize {
		panic("aesgo: input not full block")
	}
	out := a.EncryptBlock(Block(src[:BlockSize]))
	copy(dst, out[:])
}

func (a *AES) Decrypt(dst, src []byte) {
	if len(src) < BlockSize || len(dst) < BlockSize {
		panic("aesgo: input not full block")
	}
	out := a.DecryptBlock(Block(src[:BlockSize]))
	copy(dst, out[:])
}

func addRoundKey(state [4][4]byte, key [4][4]byte) [4][4]byte {
	return xorMatrix(state, key)
}

// shiftRows rotates row r left by r positions.
func shiftRows(state [4][4]byte) [4][4]byte {
	var s [4][4]byte
	s[0] = state[0]

	s[1] = [4]byte{state[1][1], state[1][2], state[1][3], state[1][0]}
	s[2] = [4]byte{state[2][2], state[2][3], state[2][0], state[2][1]}
	s[3] = [4]byte{state[3][3], state[3][0], state[3][1], state[3][2]}

	return s
}

// invShiftRows rotates row r right by r positions.
func invShiftRows(state [4][4]byte) [4][4]byte {
	var s [4][4]byte
	s[0] = state[0]

	s[1] = [4]byte{state[1][3], state[1][0], state[1][1], state[1][2]}
	s[2] = [4]byte{state[2][2], state[2][3], state[2][0], state[2][1]}
	s[3] = [4]byte{state[3][1], state[3][2], state[3][3], state[3][0]}

	return s
}

func convertArrayToMatrix(b [16]byte) [4][4]byte {
	var r [4][4]byte

	r[0] = [4]byte{b[0], b[4], b[8], b[12]}
	r[1] = [4]byte{b[1], b[5], b[9], b[13]}
	r[2] = [4]byte{b[2], b[6], b[10], b[14]}
	r[3] = [4]byte{b[3], b[7], b[11], b[15]}

	return r
}

func convertMatrixToArray(m [4][4]byte) [16]byte {
	var r [16]byte
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			r[c*4+row] = m[row][c]
		}
	}
	return r
}

func xorMatrix(a, b [4][4]byte) [4][4]byte {
	var x [4][4]byte
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			x[i][j] = a[i][j] ^ b[i][j]
		}
	}
	return x
}
