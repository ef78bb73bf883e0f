package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// ActivationCodeLength is the number of digits in an activation code.
const ActivationCodeLength = 6

// GenerateActivationCode returns a fresh numeric activation code. The code
// is handed to the employee out of band and only its hash is persisted.
func GenerateActivationCode() (string, error) {
	code := make([]byte, ActivationCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate activation code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// HashActivationCode hashes a code for at-rest storage.
func HashActivationCode(code string) (string, error) {
	if code == "" {
		return "", errors.New("activation code is empty")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash activation code: %w", err)
	}
	return string(bytes), nil
}

// CheckActivationCode compares a submitted code with the stored hash.
func CheckActivationCode(code, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errors.New("invalid activation code")
		}
		return fmt.Errorf("failed to check activation code: %w", err)
	}
	return nil
}
