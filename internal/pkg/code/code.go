// Package code generates the short numeric confirmation codes sent to users.
package code

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

// Length is the number of decimal digits in a confirmation code.
const Length = 4

var shape = regexp.MustCompile(`^[0-9]{4}$`)

// Generate returns a 4-character string of independent uniform random decimal digits.
func Generate() (string, error) {
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b[i] = '0' + byte(n.Int64())
	}
	return string(b), nil
}

// Valid reports whether s has the exact shape of a generated code.
func Valid(s string) bool { return shape.MatchString(s) }
