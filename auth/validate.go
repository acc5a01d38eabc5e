package auth

import (
	"fmt"
	"net/mail"
	"strings"
)

// MinPasswordLength is the shortest password accepted by Login and Register
const MinPasswordLength = 6

// Profile holds the registration form fields
type Profile struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return fmt.Errorf("%w: invalid email address %q", ErrValidation, email)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	return nil
}

// Validate checks the fields the register form requires
func (p Profile) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("%w: first name is required", ErrValidation)
	}
	if strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("%w: last name is required", ErrValidation)
	}
	if err := validateEmail(p.Email); err != nil {
		return err
	}
	return validatePassword(p.Password)
}
