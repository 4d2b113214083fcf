// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const randomCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomString returns a cryptographically random alphanumeric string.
func GenerateRandomString(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(randomCharset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(randomCharset[n.Int64()])
	}
	return sb.String(), nil
}

// GenerateVerificationCode returns a numeric code suitable for email verification.
func GenerateVerificationCode(digits int) (string, error) {
	var sb strings.Builder
	sb.Grow(digits)
	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// GeneratePaymentReference returns a unique gateway reference of the form
// AGRO-20260115-7F3A9C2B. References are unique per payment attempt.
func GeneratePaymentReference() (string, error) {
	suffix, err := GenerateRandomString(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("AGRO-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(suffix)), nil
}

// HashString returns the hex-encoded SHA-256 digest of the input.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
