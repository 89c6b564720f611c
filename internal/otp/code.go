package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// CodeLength is fixed by the verification contract: six numeric digits.
const CodeLength = 6

var ErrBadCode = errors.New("otp: code must be 6 digits")

// GenerateCode returns a zero-padded 6-digit code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SanitizeCode strips every non-digit rune from raw user input.
func SanitizeCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCode sanitizes and validates input before submission.
func NormalizeCode(raw string) (string, error) {
	code := SanitizeCode(raw)
	if len(code) != CodeLength {
		return "", ErrBadCode
	}
	return code, nil
}
