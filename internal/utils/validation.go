package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const MaxNameLength = 64

// ValidateName checks nicknames, display names and room names.
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError(kind + " must not be empty")
	}
	if !utf8.ValidString(name) {
		return ValidationError(kind + " is not valid UTF-8")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ValidationError(kind + " is too long")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ValidationError(kind + " contains control characters")
		}
	}
	return nil
}

func IsYAMLFile(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}
