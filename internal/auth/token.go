package auth

import (
	"crypto/rand"
	"fmt"
	"time"
)

// TokenLength is the fixed length of every bearer token value.
const TokenLength = 20

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Token is one bearer credential owned by an account. Tokens accumulate
// and are never revoked; last_used is refreshed on every successful
// verification.
type Token struct {
	Value    string    `json:"token"`
	LastUsed time.Time `json:"last_used"`
}

// generateToken produces a random alphanumeric token, returning both the
// record to persist and the plaintext value handed to the caller.
func generateToken() (Token, string, error) {
	buf := make([]byte, TokenLength)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, "", fmt.Errorf("generate token: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}

	value := string(buf)
	return Token{Value: value, LastUsed: time.Now().UTC()}, value, nil
}
