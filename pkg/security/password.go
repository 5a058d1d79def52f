package security

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a password does not match its hash
var ErrInvalidCredentials = errors.New("invalid credentials")

// PasswordHasher hashes and verifies credentials with an adaptive one-way algorithm
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Check(secret, hash string) error
}

// bcryptHasher implements PasswordHasher with bcrypt
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt hasher; out-of-range costs fall back to bcrypt.DefaultCost
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

// Hash hashes the secret with bcrypt
func (h *bcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("password cannot be empty")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// Check compares a secret against a bcrypt hash
func (h *bcryptHasher) Check(secret, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return err
}

// PasswordPolicy is the configurable password strength rule set
type PasswordPolicy struct {
	MinLength        int
	RequireMixedCase bool
	RequireNumbers   bool
	RequireSymbols   bool
}

// DefaultPasswordPolicy only requires eight characters
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8}
}

// Check returns one message per rule the password breaks
func (p PasswordPolicy) Check(password string) []string {
	var (
		messages                    []string
		upper, lower, digit, symbol bool
		length                      int
	)

	for _, r := range password {
		length++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	if p.MinLength > 0 && length < p.MinLength {
		messages = append(messages, fmt.Sprintf("The password must be at least %d characters.", p.MinLength))
	}
	if p.RequireMixedCase && !(upper && lower) {
		messages = append(messages, "The password must contain at least one uppercase and one lowercase letter.")
	}
	if p.RequireNumbers && !digit {
		messages = append(messages, "The password must contain at least one number.")
	}
	if p.RequireSymbols && !symbol {
		messages = append(messages, "The password must contain at least one symbol.")
	}

	return messages
}
