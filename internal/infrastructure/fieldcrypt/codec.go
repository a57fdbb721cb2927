// Package fieldcrypt encrypts individual string columns with AES-256-GCM.
//
// An envelope is base64(nonce || ciphertext || tag) with a 12-byte random
// nonce and a 16-byte tag. There is no version byte.
//
// Decrypt tolerates legacy rows written before encryption was introduced:
// anything that is not syntactically an envelope (wrong alphabet, bad
// base64, shorter than nonce+tag) is returned unchanged. A value that is
// syntactically an envelope but fails authentication is reported as
// ErrDecryptionFailed.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	KeySize   = 32
	nonceSize = 12
	tagSize   = 16

	blindIndexInfo = "workshop/blind-index"
)

var (
	// ErrInvalidKey is a configuration error and must abort start-up.
	ErrInvalidKey       = errors.New("fieldcrypt: key must be 32 bytes, base64 encoded")
	ErrDecryptionFailed = errors.New("fieldcrypt: decryption failed")
)

var envelopeAlphabet = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// Outcome classifies a Decrypt call for observability.
type Outcome string

const (
	OutcomeDecrypted   Outcome = "ok"
	OutcomePassthrough Outcome = "passthrough"
	OutcomeFailed      Outcome = "failed"
)

// Option configures a Codec.
type Option func(*Codec)

// WithObserver registers fn to be told the outcome of every non-empty Decrypt.
func WithObserver(fn func(Outcome)) Option {
	return func(c *Codec) { c.observe = fn }
}

// Codec is safe for concurrent use; it holds no mutable state.
type Codec struct {
	aead     cipher.AEAD
	indexKey []byte
	observe  func(Outcome)
}

// NewCodec builds a codec from a base64-encoded 256-bit key.
func NewCodec(base64Key string, opts ...Option) (*Codec, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(base64Key))
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: %w", err)
	}

	indexKey := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte(blindIndexInfo)), indexKey); err != nil {
		return nil, fmt.Errorf("fieldcrypt: derive index key: %w", err)
	}

	c := &Codec{aead: aead, indexKey: indexKey}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encrypt seals plaintext under a fresh random nonce. Empty input is
// returned as is.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("fieldcrypt: nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. See the package comment
// for the legacy plaintext rules.
func (c *Codec) Decrypt(input string) (string, error) {
	if input == "" {
		return input, nil
	}

	raw, ok := parseEnvelope(input)
	if !ok {
		c.report(OutcomePassthrough)
		return input, nil
	}

	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		c.report(OutcomeFailed)
		return "", ErrDecryptionFailed
	}

	c.report(OutcomeDecrypted)
	return string(plain), nil
}

// BlindIndex returns a deterministic keyed digest of the case-folded value,
// usable as an equality lookup key for an encrypted column. The index key is
// derived from the encryption key with HKDF-SHA256.
func (c *Codec) BlindIndex(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	mac := hmac.New(sha256.New, c.indexKey)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Codec) report(o Outcome) {
	if c.observe != nil {
		c.observe(o)
	}
}

// parseEnvelope reports whether s is syntactically an envelope and returns
// its decoded bytes.
func parseEnvelope(s string) ([]byte, bool) {
	if !envelopeAlphabet.MatchString(s) {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) < nonceSize+tagSize {
		return nil, false
	}
	return raw, true
}

// GenerateKey returns a random 256-bit key encoded for NewCodec.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
