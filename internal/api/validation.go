package api

import (
	"fmt"
	"net/mail"
	"strings"
)

const minPasswordLength = 8

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failed field of a request.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Messages groups messages by field for the response body.
func (errs ValidationErrors) Messages() map[string][]string {
	out := make(map[string][]string, len(errs))
	for _, e := range errs {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// ValidateEmail accepts a bare address such as "a@example.com".
func ValidateEmail(email string) error {
	if email == "" {
		return ValidationError{Field: "email", Message: "Missing data for required field."}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ValidationError{Field: "email", Message: "Not a valid email address."}
	}
	return nil
}

// ValidateRegistration checks a sign-up request.
func ValidateRegistration(req RegisterRequest) error {
	var errs ValidationErrors

	if err := ValidateEmail(req.Email); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "Missing data for required field."})
	}
	switch {
	case req.Password == "":
		errs = append(errs, ValidationError{Field: "password", Message: "Missing data for required field."})
	case len(req.Password) < minPasswordLength:
		errs = append(errs, ValidationError{Field: "password", Message: fmt.Sprintf("Must be at least %d characters.", minPasswordLength)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateLogin checks a login request.
func ValidateLogin(req LoginRequest) error {
	var errs ValidationErrors

	if err := ValidateEmail(req.Email); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if req.Password == "" {
		errs = append(errs, ValidationError{Field: "password", Message: "Missing data for required field."})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
