// Command padoracle encrypts a message with AES-128-CBC under a random key and
// recovers it again using nothing but a padding oracle.
//
//	$ go run ./cmd/padoracle -logtostderr -v=1 -message "attack at dawn"
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"

	aesgo "github.com/mario-areias/aes-oracle/aes-go"
	"github.com/mario-areias/aes-oracle/key"
	"github.com/mario-areias/aes-oracle/oracle"
	"github.com/mario-areias/aes-oracle/paddingoracle"
)

var (
	messageFlag     = flag.String("message", "Let's test if this attack works!!", "Plaintext to encrypt and recover")
	concurrencyFlag = flag.Int("concurrency", 1, "Number of blocks recovered in parallel")
	timeoutFlag     = flag.Duration("timeout", time.Minute, "Give up after this long")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	plaintext, err := run(ctx, *messageFlag, *concurrencyFlag)
	if err != nil {
		glog.Exitf("%v", err)
	}
	fmt.Println(plaintext)
}

// run encrypts message under a random key and IV, then recovers it through
// the padding oracle alone.
func run(ctx context.Context, message string, concurrency int) (string, error) {
	o := oracle.NewCBC(key.Bit128(), aesgo.Block(key.RandomBytes(aesgo.BlockSize)))
	encrypted := o.Encrypt([]byte(message))
	glog.Infof("Encrypted %d bytes into %d blocks plus IV", len(message), len(encrypted)/aesgo.BlockSize-1)

	start := time.Now()
	attack := paddingoracle.New(o, paddingoracle.WithConcurrency(concurrency))
	decrypted, err := attack.Decrypt(ctx, encrypted)
	if err != nil {
		return "", fmt.Errorf("attack failed after %d queries: %w", attack.Queries(), err)
	}

	plaintext, err := aesgo.RemovePadding(decrypted)
	if err != nil {
		return "", fmt.Errorf("recovered plaintext is not padded: %w", err)
	}

	glog.Infof("Recovered plaintext with %d oracle queries in %v", attack.Queries(), time.Since(start))
	return string(plaintext), nil
}
