package paddingoracle

import (
	"context"
	"errors"
	"testing"

	aesgo "github.com/mario-areias/aes-oracle/aes-go"
	"github.com/mario-areias/aes-oracle/key"
	"github.com/mario-areias/aes-oracle/oracle"
)

// countingOracle counts queries made to the wrapped oracle.
type countingOracle struct {
	oracle.PaddingOracle
	n int
}

func (c *countingOracle) CheckPadding(iv, block aesgo.Block) bool {
	c.n++
	return c.PaddingOracle.CheckPadding(iv, block)
}

// encryptBlock returns the CBC encryption of one plaintext block chained from
// prev under k.
func encryptBlock(k key.Key, prev, plaintext aesgo.Block) aesgo.Block {
	return aesgo.EncryptBlock(plaintext.XOR(prev), k)
}

func TestRecoverAllZeroBlock(t *testing.T) {
	k := key.Bit128()
	prev := aesgo.Block(key.RandomBytes(aesgo.BlockSize))
	var plaintext aesgo.Block

	target := encryptBlock(k, prev, plaintext)
	o := &countingOracle{PaddingOracle: oracle.NewCBC(k, prev)}

	got, err := New(o).DecryptBlock(context.Background(), prev, target)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != plaintext {
		t.Errorf("Got %x, Expected %x", got, plaintext)
	}
	// 256 per position plus at most two confirmations for the last byte
	if o.n > 16*256+2 {
		t.Errorf("used %d queries", o.n)
	}
}

// collisionBlock builds a block whose second to last plaintext byte is 0x02 and
// a predecessor chosen so that the candidate producing ...02 02 (0x00) is tried
// before the one producing ...01 (0x03).
func collisionBlock(k key.Key) (prev, target, plaintext aesgo.Block) {
	copy(plaintext[:], "collision test\x02A")
	prev = aesgo.Block(key.RandomBytes(aesgo.BlockSize))
	prev[15] = plaintext[15] ^ 0x02
	return prev, encryptBlock(k, prev, plaintext), plaintext
}

func TestSingleBytePaddingCollision(t *testing.T) {
	k := key.Bit128()
	prev, target, plaintext := collisionBlock(k)
	o := &countingOracle{PaddingOracle: oracle.NewCBC(k, prev)}

	// the naive first hit is the wrong one
	forged := prev
	forged[15] = 0x00
	if !o.CheckPadding(forged, target) {
		t.Fatalf("expected candidate 0x00 to produce valid two byte padding")
	}
	if confirmSingleBytePadding(o, forged, target) {
		t.Errorf("two byte padding was confirmed as single byte padding")
	}
	forged[15] = 0x03
	if !confirmSingleBytePadding(o, forged, target) {
		t.Errorf("genuine single byte padding was not confirmed")
	}

	o.n = 0
	r := NewBlockRecovery(prev, target)
	n, err := r.Step(o)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// 0x00 hit + rejected confirmation, 0x01, 0x02, 0x03 hit + confirmation
	if n != 6 || o.n != 6 {
		t.Errorf("first step reported %d queries, oracle saw %d, expected 6", n, o.n)
	}
	if got := r.Recovered(); len(got) != 1 || got[0] != 'A' {
		t.Fatalf("recovered %q, expected \"A\"", got)
	}

	if err := New(o).Resume(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got, ok := r.Plaintext(); !ok || got != plaintext {
		t.Errorf("Got %q (done=%v), Expected %q", got, ok, plaintext)
	}
}

func TestExhaustedSearch(t *testing.T) {
	never := oracle.PaddingOracleFunc(func(iv, block aesgo.Block) bool { return false })
	r := NewBlockRecovery(aesgo.Block{}, aesgo.Block{})

	n, err := r.Step(never)
	if !errors.Is(err, ErrNoValidPadding) {
		t.Fatalf("expected ErrNoValidPadding, got %v", err)
	}
	if n != 256 {
		t.Errorf("expected 256 queries, got %d", n)
	}
	if r.Position() != 15 || len(r.Recovered()) != 0 {
		t.Errorf("failed step changed the recovery state")
	}

	_, err = New(never).DecryptBlock(context.Background(), aesgo.Block{}, aesgo.Block{})
	if !errors.Is(err, ErrNoValidPadding) {
		t.Errorf("expected ErrNoValidPadding, got %v", err)
	}
}

func TestResumeAfterFailure(t *testing.T) {
	k := key.Bit128()
	prev := aesgo.Block(key.RandomBytes(aesgo.BlockSize))
	plaintext := aesgo.Block([]byte("resumable attack"))
	target := encryptBlock(k, prev, plaintext)
	honest := oracle.NewCBC(k, prev)

	broken := true
	flaky := oracle.PaddingOracleFunc(func(iv, block aesgo.Block) bool {
		return !broken && honest.CheckPadding(iv, block)
	})

	r := NewBlockRecovery(prev, target)
	for i := 0; i < 3; i++ {
		if _, err := r.Step(honest); err != nil {
			t.Fatalf("step %d: %s", i, err)
		}
	}

	if _, err := r.Step(flaky); !errors.Is(err, ErrNoValidPadding) {
		t.Fatalf("expected ErrNoValidPadding, got %v", err)
	}
	if got := string(r.Recovered()); got != "ack" {
		t.Errorf("recovered %q after failure, expected \"ack\"", got)
	}

	broken = false
	if err := New(flaky).Resume(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got, ok := r.Plaintext(); !ok || got != plaintext {
		t.Errorf("Got %q, Expected %q", got, plaintext)
	}
	if r.Position() != -1 {
		t.Errorf("finished recovery reports position %d", r.Position())
	}
}
