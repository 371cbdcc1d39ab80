package utils

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindValidation
	KindSecurity
	KindConfig
	KindTheme
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSecurity:
		return "security"
	case KindConfig:
		return "config"
	case KindTheme:
		return "theme"
	default:
		return "error"
	}
}

// RelayError is the error type shared by every package of the node.
// Two RelayErrors match under errors.Is when kind and message agree, so a
// sentinel still matches after WithDetails.
type RelayError struct {
	Kind    ErrorKind
	Message string
	Details string
}

func NewRelayError(msg string) *RelayError {
	return &RelayError{Kind: KindGeneric, Message: msg}
}

func (e *RelayError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// WithDetails returns a copy carrying extra context.
func (e *RelayError) WithDetails(details string) *RelayError {
	return &RelayError{Kind: e.Kind, Message: e.Message, Details: details}
}

func (e *RelayError) Is(target error) bool {
	t, ok := target.(*RelayError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func ValidationError(msg string) *RelayError {
	return &RelayError{Kind: KindValidation, Message: msg}
}

func SecurityError(msg string) *RelayError {
	return &RelayError{Kind: KindSecurity, Message: msg}
}

func ConfigError(msg string) *RelayError {
	return &RelayError{Kind: KindConfig, Message: msg}
}

func ThemeError(msg string) *RelayError {
	return &RelayError{Kind: KindTheme, Message: msg}
}

func isKind(err error, kind ErrorKind) bool {
	var re *RelayError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}

func IsValidationError(err error) bool { return isKind(err, KindValidation) }

func IsSecurityError(err error) bool { return isKind(err, KindSecurity) }

func IsConfigError(err error) bool { return isKind(err, KindConfig) }
