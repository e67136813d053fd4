package aesgo

import (
	"github.com/mario-areias/aes-oracle/key"
)

const (
	keyBlock = 4 // 4 bytes or 32 bits
	rounds   = 10
	words    = keyBlock * (rounds + 1)
)

// Schedule holds the round keys 0..10 in round order. Each round key uses the
// same column-major byte order as a Block.
type Schedule [rounds + 1]Block

type word [keyBlock]byte

// expandKey derives the 44 schedule words from k as described in FIPS-197 5.2
// and groups them four at a time into round keys.
func expandKey(k key.Key) Schedule {
	var w [words]word

	for i := 0; i < keyBlock; i++ {
		copy(w[i][:], k[i*keyBlock:(i+1)*keyBlock])
	}

	for i := keyBlock; i < words; i++ {
		t := w[i-1]
		if i%keyBlock == 0 {
			t = rcon(i/keyBlock, subWord(rotWord(t)))
		}
		w[i] = xor(w[i-keyBlock], t)
	}

	var s Schedule
	for r := range s {
		for c := 0; c < keyBlock; c++ {
			copy(s[r][c*keyBlock:], w[r*keyBlock+c][:])
		}
	}
	return s
}

func rotWord(w word) word {
	return word{w[1], w[2], w[3], w[0]}
}

func subWord(w word) word {
	var s word
	for i := 0; i < keyBlock; i++ {
		s[i] = subByte(w[i])
	}
	return s
}

// rcon xors the round constant for round (1..10) into w.
func rcon(round int, w word) word {
	return xor(w, rconTable[round-1])
}

func xor(a, b word) word {
	var x word
	for i := 0; i < keyBlock; i++ {
		x[i] = a[i] ^ b[i]
	}
	return x
}

var rconTable = [rounds]word{
	{0x01, 0x00, 0x00, 0x00},
	{0x02, 0x00, 0x00, 0x00},
	{0x04, 0x00, 0x00, 0x00},
	{0x08, 0x00, 0x00, 0x00},
	{0x10, 0x00, 0x00, 0x00},
	{0x20, 0x00, 0x00, 0x00},
	{0x40, 0x00, 0x00, 0x00},
	{0x80, 0x00, 0x00, 0x00},
	{0x1B, 0x00, 0x00, 0x00},
	{0x36, 0x00, 0x00, 0x00},
}
