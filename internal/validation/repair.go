package validation

import (
	"fmt"
	"strings"
)

const (
	MinRegistrationLength = 3
	MinPhoneLength        = 10
)

// FieldError attributes a validation failure to a single input field.
type FieldError struct {
	Field   string
	Message string
}

type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, 0, len(fe))
	for _, e := range fe {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the attributed field names in order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for _, e := range fe {
		out = append(out, e.Field)
	}
	return out
}

// ValidateRequired checks the two fields a repair request cannot exist without.
func ValidateRequired(registrationNumber, problemDescription string) FieldErrors {
	var errs FieldErrors
	if strings.TrimSpace(registrationNumber) == "" {
		errs = append(errs, FieldError{Field: "registrationNumber", Message: "Registration number is required"})
	}
	if strings.TrimSpace(problemDescription) == "" {
		errs = append(errs, FieldError{Field: "problemDescription", Message: "Problem description is required"})
	}
	return errs
}

// ValidateRegistration applies the form's minimum length rule.
func ValidateRegistration(registrationNumber string) error {
	if len(strings.TrimSpace(registrationNumber)) < MinRegistrationLength {
		return fmt.Errorf("registration number must be at least %d characters", MinRegistrationLength)
	}
	return nil
}

// ValidatePhone accepts an empty phone number; otherwise it must be long enough to dial.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone != "" && len(phone) < MinPhoneLength {
		return fmt.Errorf("please enter a valid phone number (at least %d characters)", MinPhoneLength)
	}
	return nil
}

// NormalizeRegistration uppercases and trims a registration number.
func NormalizeRegistration(registrationNumber string) string {
	return strings.ToUpper(strings.TrimSpace(registrationNumber))
}
