// Package auth verifies the gallery owner's login credentials.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// ValidatePassword checks minimal password requirements.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// HashPassword hashes one plaintext password for use in configuration.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword verifies a plaintext candidate against the configured
// value. Bcrypt hashes are compared with bcrypt; anything else is treated
// as a plaintext credential and compared in constant time, which keeps
// local single-user setups simple.
func VerifyPassword(configured, candidate string) bool {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") || strings.HasPrefix(configured, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(candidate)) == 1
}

// VerifyLogin checks a username/password pair against the configured
// admin credentials.
func VerifyLogin(configuredUser, configuredPass, username, password string) bool {
	if configuredUser == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(configuredUser), []byte(username)) == 1
	passOK := VerifyPassword(configuredPass, password)
	return userOK && passOK
}
