// Package crypto signs and verifies payment provider callbacks.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptySecret is returned when no signing secret is configured.
var ErrEmptySecret = errors.New("payment signing secret is empty")

// Signer computes HMAC-SHA256 signatures over "orderID|paymentID".
type Signer struct {
	secret []byte
}

// NewSigner returns a Signer for secret.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the lowercase hex signature for an order and provider payment ID.
func (s *Signer) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches in constant time. Malformed hex never matches.
func (s *Signer) Verify(orderID, paymentID, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hmac.Equal(got, mac.Sum(nil))
}
