package aesgo

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"testing"

	"github.com/mario-areias/aes-oracle/key"
)

func TestECB(t *testing.T) {
	k := key.Bit128()
	a := New(k)

	same := bytes.Repeat([]byte("YELLOW SUBMARINE"), 2)
	c, err := a.EncryptECB(same)
	if err != nil {
		t.Fatalf("Error encrypting: %s", err)
	}
	if !bytes.Equal(c[:16], c[16:]) {
		t.Errorf("identical plaintext blocks produced different ciphertext blocks")
	}

	different := []byte("YELLOW SUBMARINEyellow submarine")
	c, err = a.EncryptECB(different)
	if err != nil {
		t.Fatalf("Error encrypting: %s", err)
	}
	if bytes.Equal(c[:16], c[16:]) {
		t.Errorf("different plaintext blocks produced identical ciphertext blocks")
	}

	p, err := a.DecryptECB(c)
	if err != nil {
		t.Fatalf("Error decrypting: %s", err)
	}
	if !bytes.Equal(p, different) {
		t.Errorf("Got: %q, Expected: %q", p, different)
	}

	// each block must match the standard library block cipher
	std, err := aes.NewCipher(k.GetBytes())
	if err != nil {
		t.Fatal(err)
	}
	want := make([]byte, BlockSize)
	std.Encrypt(want, different[16:])
	if !bytes.Equal(c[16:], want) {
		t.Errorf("second ECB block %x, std %x", c[16:], want)
	}
}

func TestInvalidLength(t *testing.T) {
	a := New(key.Bit128())
	var iv Block

	tests := []struct {
		name string
		f    func([]byte) ([]byte, error)
	}{
		{"EncryptECB", a.EncryptECB},
		{"DecryptECB", a.DecryptECB},
		{"EncryptCBC", func(b []byte) ([]byte, error) { return a.EncryptCBC(b, iv) }},
		{"DecryptCBC", func(b []byte) ([]byte, error) { return a.DecryptCBC(b, iv) }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for _, n := range []int{1, 15, 17, 33} {
				out, err := test.f(make([]byte, n))
				if !errors.Is(err, ErrInvalidLength) {
					t.Errorf("length %d: expected ErrInvalidLength, got %v", n, err)
				}
				if out != nil {
					t.Errorf("length %d: expected no output, got %x", n, out)
				}
			}

			if _, err := test.f(nil); err != nil {
				t.Errorf("empty input should be accepted, got %s", err)
			}
		})
	}
}

func TestCBCAgainstStd(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "one block", input: "YELLOW SUBMARINE"},
		{name: "unaligned", input: "Let's test if this is working!"},
		{name: "empty", input: ""},
		{name: "several blocks", input: "Ice, Ice, baby. Ice, Ice, baby. Ice, Ice, baby. Ice, Ice, baby."},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			k := key.Bit128()
			iv := Block(key.RandomBytes(BlockSize))
			a := New(k)
			padded := Pad([]byte(test.input), BlockSize)

			c, err := a.EncryptCBC(padded, iv)
			if err != nil {
				t.Fatalf("Error encrypting: %s", err)
			}

			std, err := aes.NewCipher(k.GetBytes())
			if err != nil {
				t.Fatal(err)
			}
			want := make([]byte, len(padded))
			cipher.NewCBCEncrypter(std, iv[:]).CryptBlocks(want, padded)
			if !bytes.Equal(c, want) {
				t.Errorf("Got: %x, std: %x", c, want)
			}

			p, err := a.DecryptCBC(c, iv)
			if err != nil {
				t.Fatalf("Error decrypting: %s", err)
			}
			if !bytes.Equal(p, padded) {
				t.Errorf("Got: %x, Expected: %x", p, padded)
			}

			// and our block core driven by the standard CBC decrypter
			viaStd := make([]byte, len(c))
			cipher.NewCBCDecrypter(a, iv[:]).CryptBlocks(viaStd, c)
			if !bytes.Equal(viaStd, padded) {
				t.Errorf("std CBC over aesgo: %x, Expected: %x", viaStd, padded)
			}
		})
	}
}

func TestModesRoundTrip(t *testing.T) {
	a := New(key.Bit128())
	plaintext := []byte("Let's test if this is working!")

	for _, mode := range []Mode{ECB, CBC, CTR} {
		t.Run(mode.String(), func(t *testing.T) {
			c, err := a.EncryptWithMode(mode, plaintext)
			if err != nil {
				t.Fatalf("Error encrypting: %s", err)
			}

			p, err := a.DecryptWithMode(mode, c)
			if err != nil {
				t.Fatalf("Error decrypting: %s", err)
			}
			if !bytes.Equal(p, plaintext) {
				t.Errorf("Got: %q, Expected: %q", p, plaintext)
			}
		})
	}

	t.Run("CBC uses a fresh IV", func(t *testing.T) {
		c1, _ := a.EncryptWithMode(CBC, plaintext)
		c2, _ := a.EncryptWithMode(CBC, plaintext)
		if bytes.Equal(c1, c2) {
			t.Errorf("two CBC encryptions of the same plaintext are identical")
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		if _, err := a.EncryptWithMode(Mode(42), plaintext); !errors.Is(err, ErrUnknownMode) {
			t.Errorf("expected ErrUnknownMode, got %v", err)
		}
		if _, err := a.DecryptWithMode(Mode(42), plaintext); !errors.Is(err, ErrUnknownMode) {
			t.Errorf("expected ErrUnknownMode, got %v", err)
		}
	})
}

func TestDecryptWithModeBadPadding(t *testing.T) {
	a := New(key.Bit128())
	var iv Block

	// an unpadded message encrypts fine but cannot be opened
	c, err := a.EncryptCBC([]byte("YELLOW SUBMARINE"), iv)
	if err != nil {
		t.Fatal(err)
	}

	p, err := a.DecryptWithMode(CBC, append(iv[:], c...))
	if !errors.Is(err, ErrInvalidPadding) {
		t.Errorf("expected ErrInvalidPadding, got %v", err)
	}
	if p != nil {
		t.Errorf("plaintext leaked on padding failure: %q", p)
	}

	if _, err := a.DecryptWithMode(CBC, []byte("short")); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength for a missing IV, got %v", err)
	}
}

func TestDetectECB(t *testing.T) {
	a := New(key.Bit128())
	input := bytes.Repeat([]byte{'A'}, 48)

	ecb, err := a.EncryptWithMode(ECB, input)
	if err != nil {
		t.Fatal(err)
	}
	if !DetectECB(ecb) {
		t.Errorf("ECB ciphertext of repeated blocks not detected")
	}

	cbc, err := a.EncryptWithMode(CBC, input)
	if err != nil {
		t.Fatal(err)
	}
	if DetectECB(cbc) {
		t.Errorf("CBC ciphertext flagged as ECB")
	}

	if DetectECB(nil) {
		t.Errorf("empty input flagged as ECB")
	}
}

func TestSplitAndXOR(t *testing.T) {
	blocks := Split([]byte("0123456789abcdefXYZ"), BlockSize)
	if len(blocks) != 2 || string(blocks[0]) != "0123456789abcdef" || string(blocks[1]) != "XYZ" {
		t.Errorf("unexpected split: %q", blocks)
	}

	x := XOR([]byte("Burning 'em"), []byte("ICE"))
	if want := mustHex(t, "0b3637272a2b2e63622c2e"); !bytes.Equal(x, want) {
		t.Errorf("XOR = %x, expected %x", x, want)
	}
	if back := XOR(x, []byte("ICE")); string(back) != "Burning 'em" {
		t.Errorf("XOR is not its own inverse: %q", back)
	}
}
