// Package paddingoracle recovers CBC plaintext from a ciphertext using only an
// oracle that says whether a forged ciphertext decrypts to valid PKCS#7
// padding.
//
// For a ciphertext block C with predecessor P, the attacker sends (P', C) with
// a forged P'. Decryption yields D(C) ^ P', so finding the P' byte that makes
// the last byte 0x01 reveals the last byte of D(C), and with it the plaintext
// byte D(C) ^ P. Fixing the recovered suffix to 0x02, 0x03... walks backwards
// through the block. See
// https://www.nccgroup.com/au/research-blog/cryptopals-exploiting-cbc-padding-oracles/
package paddingoracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	aesgo "github.com/mario-areias/aes-oracle/aes-go"
	"github.com/mario-areias/aes-oracle/oracle"
)

var (
	// ErrInvalidCiphertext is returned when the input is not an IV followed by
	// at least one whole ciphertext block.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrNoValidPadding is returned when no candidate byte is accepted by the
	// oracle. A consistent oracle never causes it.
	ErrNoValidPadding = errors.New("no candidate produced valid padding")
)

// BlockError reports a block whose recovery stopped early. Recovery holds the
// bytes found so far and can be passed to Attack.Resume.
type BlockError struct {
	Index    int // ciphertext block index, not counting the IV
	Recovery *BlockRecovery
	Err      error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d: %d bytes recovered: %s", e.Index, e.Recovery.count, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

type Option func(*Attack)

// WithConcurrency recovers up to n blocks at the same time. The oracle must be
// safe for concurrent use. Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(a *Attack) {
		a.concurrency = max(n, 1)
	}
}

type Attack struct {
	oracle      oracle.PaddingOracle
	concurrency int
	queries     atomic.Int64
}

func New(o oracle.PaddingOracle, opts ...Option) *Attack {
	a := &Attack{oracle: o, concurrency: 1}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Queries returns the number of oracle queries made so far.
func (a *Attack) Queries() int64 {
	return a.queries.Load()
}

// Decrypt recovers the plaintext of encrypted, which is the IV followed by the
// CBC ciphertext. The result still carries its PKCS#7 padding.
//
// On failure the error is a *BlockError for the first block that could not be
// recovered, or the context error if ctx was cancelled between blocks.
func (a *Attack) Decrypt(ctx context.Context, encrypted []byte) ([]byte, error) {
	if len(encrypted) < 2*aesgo.BlockSize || len(encrypted)%aesgo.BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidCiphertext, len(encrypted))
	}

	// encrypted is the IV + the cyphertext. So the first block is always the IV
	blocks := aesgo.Split(encrypted, aesgo.BlockSize)
	recoveries := make([]*BlockRecovery, len(blocks)-1)
	for i := range recoveries {
		recoveries[i] = NewBlockRecovery(aesgo.Block(blocks[i]), aesgo.Block(blocks[i+1]))
	}

	if err := a.run(ctx, recoveries); err != nil {
		return nil, err
	}

	decrypted := make([]byte, 0, len(encrypted)-aesgo.BlockSize)
	for _, r := range recoveries {
		p, _ := r.Plaintext()
		decrypted = append(decrypted, p[:]...)
	}
	return decrypted, nil
}

// DecryptBlock recovers the plaintext of target given its real predecessor.
func (a *Attack) DecryptBlock(ctx context.Context, prev, target aesgo.Block) (aesgo.Block, error) {
	r := NewBlockRecovery(prev, target)
	if err := a.Resume(ctx, r); err != nil {
		return aesgo.Block{}, err
	}
	p, _ := r.Plaintext()
	return p, nil
}

// Resume continues r from its next unrecovered position until the block is
// done, ctx is cancelled or a position cannot be recovered.
func (a *Attack) Resume(ctx context.Context, r *BlockRecovery) error {
	for !r.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Step(a.oracle)
		a.queries.Add(int64(n))
		if err != nil {
			return err
		}
	}
	return nil
}

// run recovers every block, a.concurrency at a time. Blocks only depend on
// their own ciphertext and predecessor, so the order does not matter.
func (a *Attack) run(ctx context.Context, recoveries []*BlockRecovery) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make([]error, len(recoveries))
	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup

	for i, r := range recoveries {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			glog.V(1).Infof("decrypting block %d of %d", i+1, len(recoveries))
			if err := a.Resume(ctx, r); err != nil {
				errs[i] = err
				cancel()
				return
			}
			glog.V(1).Infof("block %d done, %d queries so far", i+1, a.Queries())
		}()
	}
	wg.Wait()

	// report the first block that failed for a reason other than cancellation,
	// which may just be the echo of another block's failure.
	var cancelled error
	for i, err := range errs {
		switch {
		case err == nil:
		case isContextErr(err):
			if cancelled == nil {
				cancelled = &BlockError{Index: i, Recovery: recoveries[i], Err: err}
			}
		default:
			return &BlockError{Index: i, Recovery: recoveries[i], Err: err}
		}
	}
	if cancelled != nil {
		return cancelled
	}
	return ctx.Err()
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
