package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// OTPLength is the number of digits in a generated one-time code.
const OTPLength = 6

// GenerateOTP produces a zero-padded numeric one-time code of the given
// length, drawn from the CSPRNG so a code cannot be guessed within its
// validity window.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("otp length must be positive")
	}

	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}

	code := n.String()
	if pad := length - len(code); pad > 0 {
		code = strings.Repeat("0", pad) + code
	}

	return code, nil
}
