package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPDigits is the length of a password reset code.
const OTPDigits = 6

var otpSpace = big.NewInt(1_000_000)

// NewOTP returns a uniformly random six-digit numeric code, zero-padded.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
