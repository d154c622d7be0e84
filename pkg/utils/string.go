package utils

import (
	"crypto/rand"
	"encoding/hex"
	mathrand "math/rand"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var randSource = mathrand.NewSource(time.Now().UnixNano())
var randGenerator = mathrand.New(randSource)

// GenerateRandomString is for non-secret identifiers like event URL slugs.
func GenerateRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[randGenerator.Intn(len(charset))]
	}
	return string(b)
}

// GenerateSecureToken returns a hex token with byteLen bytes of entropy.
// Download and selection tokens are single-use credentials, so they come from
// crypto/rand, never the seeded generator above.
func GenerateSecureToken(byteLen int) string {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the platform entropy source is broken
		panic(err)
	}
	return hex.EncodeToString(b)
}
