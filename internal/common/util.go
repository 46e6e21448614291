package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandURLToken generates a URL-safe random token from size random bytes,
// encoded with unpadded base64url. Used for unlisted share tokens.
func MakeRandURLToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
