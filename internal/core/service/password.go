package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// PasswordAlphabet omits characters that are easy to misread (I, O, i, l, o, 0, 1).
const PasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// GeneratedPasswordLen is the length of passwords issued to new clients.
const GeneratedPasswordLen = 10

// MinPasswordLen is the shortest password a client may choose.
const MinPasswordLen = 8

// BcryptHasher implements ports.PasswordHasher.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h BcryptHasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GeneratePassword returns a random password drawn from PasswordAlphabet.
func GeneratePassword() (string, error) {
	buf := make([]byte, GeneratedPasswordLen)
	limit := big.NewInt(int64(len(PasswordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		buf[i] = PasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
