package services

import (
	"fmt"
	"strings"
	"unicode"
)

// Password requirements
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything longer
)

// ValidatePassword checks the password policy for staff accounts:
// 8 to 72 bytes, at least one letter and one number, and not the email's local part
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordLength)
	}

	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

// ValidatePasswordForEmail applies ValidatePassword and rejects passwords derived from the email
func ValidatePasswordForEmail(password, email string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	if len(local) >= 4 && strings.Contains(strings.ToLower(password), local) {
		return fmt.Errorf("password must not contain the email address")
	}
	return nil
}

// IsWeakPassword is a helper to check if a password is weak without returning specific error
func IsWeakPassword(password string) bool {
	return ValidatePassword(password) != nil
}
