// Package otp generates the short-lived numeric passcodes used as the second
// login factor. Codes are uniformly random 6-digit strings (leading zeros
// preserved) mailed to the user, not RFC 6238 TOTP values.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeLength is the number of digits in a generated passcode.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// Generator produces passcodes with a fixed validity window.
type Generator struct {
	validity time.Duration
}

func NewGenerator(validity time.Duration) *Generator {
	return &Generator{validity: validity}
}

// Validity returns the configured code lifetime.
func (g *Generator) Validity() time.Duration {
	return g.validity
}

// Generate returns a fresh zero-padded 6-digit code and its expiry instant.
func (g *Generator) Generate() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", time.Time{}, err
	}
	return fmt.Sprintf("%06d", n.Int64()), time.Now().Add(g.validity), nil
}
