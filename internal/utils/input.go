package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

func ParseInputString(s string) string {
	return strings.TrimSpace(s)
}

func ParseInputStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckMaxLength returns an error naming the field when value exceeds max
// characters (runes, not bytes).
func CheckMaxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return nil
}
