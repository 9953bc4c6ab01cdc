package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor applied to every stored credential.
const bcryptCost = 12

var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword generates a one-way hash of the given plaintext password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(h), nil
}

// VerifyPassword reports whether the plaintext password matches the stored
// hash. A mismatch is not an error; only unexpected failures are.
func VerifyPassword(password, hash string) (bool, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
