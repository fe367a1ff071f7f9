package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandBase64String returns size random bytes encoded with standard
// base64 padding, the format used for refresh tokens.
func MakeRandBase64String(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
