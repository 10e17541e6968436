package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// keySize fixes the vault on AES-256.
const keySize = 32

var (
	ErrEmptySecret    = errors.New("vault: encryption secret is empty")
	ErrMalformed      = errors.New("vault: malformed ciphertext")
	ErrDecryptFailure = errors.New("vault: decrypt failed")
)

// Vault encrypts individual credential fields for storage at rest. Each field
// is sealed independently so rotating one token never requires touching the
// others. Output format is hex(iv):hex(ciphertext) with a fresh random IV per
// call; AES-GCM so a wrong key or tampered value fails authentication instead
// of decrypting to garbage.
type Vault struct {
	key []byte
}

// New derives the AES key from the configured secret, padded with zero bytes
// or truncated to the required key length.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, keySize)
	copy(key, []byte(secret))
	return &Vault{key: key}, nil
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	aead, err := v.aead()
	if err != nil {
		return "", err
	}

	iv := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	ciphertext := aead.Seal(nil, iv, []byte(plaintext), nil)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It fails closed: malformed input, a tampered
// value or the wrong key all return an error, never the stored ciphertext.
func (v *Vault) Decrypt(encrypted string) (string, error) {
	parts := strings.SplitN(encrypted, ":", 2)
	if len(parts) != 2 {
		return "", ErrMalformed
	}

	aead, err := v.aead()
	if err != nil {
		return "", err
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aead.NonceSize() {
		return "", ErrMalformed
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrMalformed
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailure, err)
	}

	return string(plaintext), nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
