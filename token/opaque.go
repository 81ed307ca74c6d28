// Package token generates bearer tokens for the admin API.
package token

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/code19m/errx"
)

const opaqueTokenBytes = 32

// NewOpaqueToken generates a random URL-safe token.
func NewOpaqueToken() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errx.Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
