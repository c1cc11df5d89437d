package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

// FixedIV is the 16-byte ASCII constant used as the AES-CTR IV for
// every session. The protocol uses no per-message nonce: confidentiality
// relies entirely on the session-unique derived key.
var FixedIV = []byte("0102030405060708")

// KeyMode selects how much of the ECDH shared secret becomes the AES
// key. AES128 (16-byte truncation) is the canonical, interoperable
// form; AES256 is a diagnostic-only compatibility switch — see Open
// Question 1.
type KeyMode int

const (
	AES128 KeyMode = iota
	AES256
)

// aesCTRCipher is the concrete SessionCipher: AES-CTR with the fixed
// IV, keyed off a truncated or full ECDH shared secret.
type aesCTRCipher struct {
	block cipher.Block
}

func newAESCTRCipher(sharedSecret []byte, mode KeyMode) (*aesCTRCipher, error) {
	keyLen := 16
	if mode == AES256 {
		keyLen = 32
	}
	if len(sharedSecret) < keyLen {
		return nil, fmt.Errorf("mta/crypto: shared secret too short for %d-byte key", keyLen)
	}

	block, err := aes.NewCipher(sharedSecret[:keyLen])
	if err != nil {
		return nil, fmt.Errorf("mta/crypto: new AES cipher: %w", err)
	}
	return &aesCTRCipher{block: block}, nil
}

func (c *aesCTRCipher) stream() cipher.Stream {
	return cipher.NewCTR(c.block, FixedIV)
}

// Encrypt implements SessionCipher.
func (c *aesCTRCipher) Encrypt(plaintext string) (string, error) {
	in := []byte(plaintext)
	out := make([]byte, len(in))
	c.stream().XORKeyStream(out, in)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt implements SessionCipher.
func (c *aesCTRCipher) Decrypt(encoded string) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("mta/crypto: decode ciphertext: %w", err)
	}
	out := make([]byte, len(ct))
	c.stream().XORKeyStream(out, ct)
	return string(out), nil
}
