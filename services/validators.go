package services

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

var (
	cuitMultipliers    = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}
	registrationFormat = regexp.MustCompile(`^[A-Z0-9]+(-[A-Z0-9]+)?$`)
	argentineFormat    = regexp.MustCompile(`^L[VQ]-[A-Z]{3}$`)
	phoneStrip         = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	phoneFormat        = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
)

// NormalizeCUIT strips separators from a CUIT/CUIL
func NormalizeCUIT(cuit string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cuit)
}

// ValidateCUIT checks length and check digit of an Argentine tax id
func ValidateCUIT(cuit string) bool {
	clean := NormalizeCUIT(cuit)
	if len(clean) != 11 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		sum += int(clean[i]-'0') * cuitMultipliers[i]
	}
	rem := sum % 11
	check := 11 - rem
	if rem < 2 {
		check = rem
	}
	return int(clean[10]-'0') == check
}

// NormalizeRegistration upper-cases and trims an aircraft registration mark
func NormalizeRegistration(reg string) string {
	return strings.ToUpper(strings.TrimSpace(reg))
}

// ValidateRegistration checks an aircraft registration mark (5 to 10 characters)
func ValidateRegistration(reg string) bool {
	reg = NormalizeRegistration(reg)
	return len(reg) >= 5 && len(reg) <= 10 && registrationFormat.MatchString(reg)
}

// IsArgentineRegistration reports whether a mark follows the LV-XXX / LQ-XXX format
func IsArgentineRegistration(reg string) bool {
	return argentineFormat.MatchString(NormalizeRegistration(reg))
}

// ValidateEmail checks an email address
func ValidateEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}

// ValidatePhone checks a phone number, allowing common separators
func ValidatePhone(phone string) bool {
	if len(phone) < 10 || len(phone) > 20 {
		return false
	}
	return phoneFormat.MatchString(phoneStrip.Replace(phone))
}
