package aesgo

// Split divides b into n byte chunks. The last chunk is shorter when len(b) is
// not a multiple of n. Chunks share memory with b.
func Split(b []byte, n int) [][]byte {
	l := len(b)
	var blocks [][]byte
	for i := 0; i < l; i += n {
		end := i + n
		if end > l {
			end = l
		}
		blocks = append(blocks, b[i:end])
	}
	return blocks
}

// XOR returns a new slice of len(a) holding a xored with k, repeating k as
// often as needed. An empty k returns a copy of a.
func XOR(a, k []byte) []byte {
	x := make([]byte, len(a))
	copy(x, a)
	if len(k) == 0 {
		return x
	}
	for i := range x {
		x[i] ^= k[i%len(k)]
	}
	return x
}

// DetectECB reports whether any 16 byte block of ciphertext appears more than
// once. Identical plaintext blocks encrypt to identical ciphertext blocks in
// ECB, so repetition is a strong hint that ECB was used.
func DetectECB(ciphertext []byte) bool {
	seen := make(map[Block]bool)
	for _, b := range Split(ciphertext, BlockSize) {
		if len(b) < BlockSize {
			break
		}
		blk := Block(b)
		if seen[blk] {
			return true
		}
		seen[blk] = true
	}
	return false
}
