package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPLength is the number of digits in a recovery code. Six digits is
// what the reset email promises the user.
const OTPLength = 6

// GenerateOTP returns a random numeric one-time password of OTPLength
// digits, using crypto/rand. Leading zeros are allowed, so the code is
// always exactly OTPLength characters.
func GenerateOTP() (string, error) {
	const digits = "0123456789"

	code := make([]byte, OTPLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", fmt.Errorf("auth: generating otp: %w", err)
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}
