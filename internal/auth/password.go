package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

const bcryptMaxPasswordBytes = 72

// passwordInput pre-hashes passwords longer than bcrypt accepts.
func passwordInput(password string) []byte {
	if len(password) <= bcryptMaxPasswordBytes {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword(passwordInput(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func VerifyPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), passwordInput(password)) == nil
}
