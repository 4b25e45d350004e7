package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// CSRF issues and verifies the anti-forgery token embedded in every form.
// The gateway serves a single operator, so one token minted at startup
// covers the whole process lifetime. Verification is constant time.
type CSRF struct {
	token string
}

func NewCSRF() (*CSRF, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("csrf: generate token: %w", err)
	}
	return &CSRF{token: hex.EncodeToString(buf)}, nil
}

// Token returns the value to embed in form fields.
func (c *CSRF) Token() string {
	return c.token
}

// Verify reports whether a submitted token matches the issued one.
func (c *CSRF) Verify(got string) bool {
	if got == "" {
		return false
	}
	return hmac.Equal([]byte(c.token), []byte(got))
}
