package util

import (
	"regexp"
	"strings"

	"kriya-gateway/pkg/apierror"
)

var (
	phonePattern = regexp.MustCompile(`^\+\d{10,15}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// NormalizePhone strips spaces and dashes and validates the result against
// the E.164-style format +<10-15 digits>.
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")

	if !phonePattern.MatchString(phone) {
		return "", apierror.BadRequest("phone number must be in format +1234567890 (10-15 digits with country code)", raw)
	}

	return phone, nil
}

// ValidateEmail checks an optional email address. Empty input is accepted
// and normalized to the empty string.
func ValidateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", nil
	}

	if !emailPattern.MatchString(email) {
		return "", apierror.BadRequest("invalid email format", raw)
	}

	return email, nil
}

// SplitName splits a display name into first and last name on the first
// whitespace run.
func SplitName(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	parts := strings.Fields(trimmed)
	if len(parts) == 0 {
		return trimmed, ""
	}

	first := parts[0]
	last := strings.Join(parts[1:], " ")
	return first, last
}
