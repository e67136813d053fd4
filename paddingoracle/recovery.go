package paddingoracle

import (
	"fmt"

	"github.com/golang/glog"

	aesgo "github.com/mario-areias/aes-oracle/aes-go"
	"github.com/mario-areias/aes-oracle/oracle"
)

// BlockRecovery is the attack state for one ciphertext block. Plaintext bytes
// are recovered from the last position backwards; after k successful steps the
// last k bytes of known are valid.
//
// A failed Step leaves the recovery where it was, so it can be retried or
// resumed later with a (possibly different) oracle.
type BlockRecovery struct {
	prev   aesgo.Block // real predecessor: the IV or the previous ciphertext block
	target aesgo.Block
	known  aesgo.Block
	count  int
}

func NewBlockRecovery(prev, target aesgo.Block) *BlockRecovery {
	return &BlockRecovery{prev: prev, target: target}
}

// Done reports whether all 16 bytes have been recovered.
func (r *BlockRecovery) Done() bool {
	return r.count == aesgo.BlockSize
}

// Recovered returns the plaintext suffix recovered so far.
func (r *BlockRecovery) Recovered() []byte {
	out := make([]byte, r.count)
	copy(out, r.known[aesgo.BlockSize-r.count:])
	return out
}

// Plaintext returns the recovered block. ok is false until Done.
func (r *BlockRecovery) Plaintext() (p aesgo.Block, ok bool) {
	return r.known, r.Done()
}

// Position is the index of the next byte to recover, or -1 when done.
func (r *BlockRecovery) Position() int {
	return aesgo.BlockSize - r.count - 1
}

// Step recovers the byte at Position. It sweeps all 256 candidates and returns
// an error wrapping ErrNoValidPadding if none of them is accepted. It returns
// the number of oracle queries used.
func (r *BlockRecovery) Step(o oracle.PaddingOracle) (int, error) {
	if r.Done() {
		return 0, nil
	}

	pad := byte(r.count + 1)
	pos := r.Position()
	forged := r.forge(pad)
	queries := 0

	for v := 0; v <= 0xff; v++ {
		forged[pos] = byte(v)
		queries++
		if !o.CheckPadding(forged, r.target) {
			continue
		}

		if pad == 1 {
			queries++
			if !confirmSingleBytePadding(o, forged, r.target) {
				glog.V(2).Infof("rejected candidate %#02x at position %d: padding longer than one byte", v, pos)
				continue
			}
		}

		// decrypting (forged, target) gives pad at pos, so the intermediate
		// byte is v ^ pad and the real plaintext is that ^ prev[pos].
		r.known[pos] = byte(v) ^ pad ^ r.prev[pos]
		r.count++
		glog.V(2).Infof("recovered byte %d = %#02x after %d queries", pos, r.known[pos], queries)
		return queries, nil
	}

	return queries, fmt.Errorf("%w: position %d", ErrNoValidPadding, pos)
}

// forge builds the predecessor block for padding length pad: every already
// recovered byte is set so that it decrypts to pad.
func (r *BlockRecovery) forge(pad byte) aesgo.Block {
	forged := r.prev
	for j := aesgo.BlockSize - int(pad) + 1; j < aesgo.BlockSize; j++ {
		forged[j] = r.known[j] ^ r.prev[j] ^ pad
	}
	return forged
}

// confirmSingleBytePadding weeds out the false positive of the first byte
// search. A forged block accepted by the oracle may decrypt to ...02 02 (or a
// longer valid run) rather than ...01 when the plaintext byte before the last
// happens to fit. Changing byte 14 of the forged block breaks every padding
// longer than one byte but leaves 01 valid.
func confirmSingleBytePadding(o oracle.PaddingOracle, forged, target aesgo.Block) bool {
	forged[aesgo.BlockSize-2] ^= 0x01
	return o.CheckPadding(forged, target)
}
