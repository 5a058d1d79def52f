package service

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidID          = errors.New("invalid user ID")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUniquenessConflict = errors.New("username or email has already been taken")
)

// FieldError is one failed rule on one input field
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// ValidationError collects every rule failure of a rejected payload
type ValidationError struct {
	Failures []FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		messages = append(messages, f.Message)
	}
	return "validation failed: " + strings.Join(messages, " ")
}

// Is matches ErrUniquenessConflict when a unique rule failed
func (e *ValidationError) Is(target error) bool {
	if target != ErrUniquenessConflict {
		return false
	}
	for _, f := range e.Failures {
		if f.Rule == RuleUnique {
			return true
		}
	}
	return false
}

// Fields groups the messages by field
func (e *ValidationError) Fields() map[string][]string {
	fields := make(map[string][]string)
	for _, f := range e.Failures {
		fields[f.Field] = append(fields[f.Field], f.Message)
	}
	return fields
}

func (e *ValidationError) add(field, rule, message string) {
	e.Failures = append(e.Failures, FieldError{Field: field, Rule: rule, Message: message})
}

func (e *ValidationError) empty() bool {
	return len(e.Failures) == 0
}
