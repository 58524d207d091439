package user

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 30
	MinPasswordLen = 8
	// bcrypt ignores everything past 72 bytes
	MaxPasswordBytes = 72
)

var validate = validator.New()

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsEmail(email string) bool {
	return email != "" && validate.Var(email, "required,email") == nil
}

func ValidUsername(username string) bool {
	l := utf8.RuneCountInString(strings.TrimSpace(username))
	return l >= MinUsernameLen && l <= MaxUsernameLen
}

// StrongPassword requires at least MinPasswordLen characters with one upper,
// one lower, one digit and one symbol.
func StrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < MinPasswordLen || len(password) > MaxPasswordBytes {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || r == ' ':
			symbol = true
		}
	}

	return upper && lower && digit && symbol
}
