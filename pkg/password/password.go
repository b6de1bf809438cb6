// Package password generates the replacement secrets handed to buyers
// after a purchase rotates an account's credentials.
package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	lower   = "abcdefghijklmnopqrstuvwxyz"
	upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
	symbols = "!@#$%^&*()_+-=[]{};:,.<>?"

	// MinLength is the smallest secret this package will produce.
	MinLength = 14
)

var alphabet = lower + upper + digits + symbols

// Generate returns a random secret of the given length containing at
// least one lowercase letter, one uppercase letter, one digit and one
// symbol, with the remaining characters drawn uniformly from the
// combined alphabet and the final order shuffled. Lengths below
// MinLength are raised to MinLength.
func Generate(length int) (string, error) {
	if length < MinLength {
		length = MinLength
	}

	chars := make([]byte, 0, length)

	// One mandatory character per class.
	for _, set := range []string{lower, upper, digits, symbols} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	for len(chars) < length {
		c, err := pick(alphabet)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	if err := shuffle(chars); err != nil {
		return "", err
	}

	return string(chars), nil
}

func pick(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("failed to read random source: %w", err)
	}
	return set[n.Int64()], nil
}

// shuffle performs a Fisher-Yates shuffle using crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to read random source: %w", err)
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
