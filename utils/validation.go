package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldValidationError represents a validation error for a specific field
type FieldValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldValidationErrors represents multiple field validation errors
type FieldValidationErrors []FieldValidationError

// Error implements the error interface
func (e FieldValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Add appends a field error
func (e *FieldValidationErrors) Add(field, message string) {
	*e = append(*e, FieldValidationError{Field: field, Message: message})
}

// Err returns nil when no field failed
func (e FieldValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	hasLetter  = regexp.MustCompile(`[A-Za-z]`)
	hasNumber  = regexp.MustCompile(`[0-9]`)
	couponCode = regexp.MustCompile(`^[A-Z0-9_-]{3,64}$`)
)

// ValidateEmail checks if the email is valid
func ValidateEmail(email string) (bool, string) {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return false, "Invalid email format. Please enter a valid email address"
	}
	return true, ""
}

// ValidatePassword checks length and that letters and digits are mixed
func ValidatePassword(password string) (bool, string) {
	if len(password) < MinPasswordLength {
		return false, fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return false, fmt.Sprintf("Password must not exceed %d characters", MaxPasswordLength)
	}
	if !hasLetter.MatchString(password) || !hasNumber.MatchString(password) {
		return false, "Password must contain at least one letter and one number"
	}
	return true, ""
}

// ValidateName checks if the name is valid
func ValidateName(name string) (bool, string) {
	if err := ValidateStringLength(SanitizeString(name), MinNameLength, MaxNameLength); err != nil {
		return false, "Name " + err.Error()
	}
	return true, ""
}

// ValidateStringLength validates string length
func ValidateStringLength(str string, min, max int) error {
	length := len([]rune(strings.TrimSpace(str)))
	if length < min {
		return fmt.Errorf("must be at least %d characters long", min)
	}
	if length > max {
		return fmt.Errorf("must not exceed %d characters", max)
	}
	return nil
}

// ValidateCouponCode checks an already normalised coupon code
func ValidateCouponCode(code string) error {
	if !couponCode.MatchString(code) {
		return fmt.Errorf("coupon code must be 3-64 characters of A-Z, 0-9, '-' or '_'")
	}
	return nil
}

// ValidateCouponValue checks if the coupon value is valid based on its type
func ValidateCouponValue(discountType string, value float64) error {
	switch discountType {
	case "percentage":
		if value <= 0 || value > 100 {
			return fmt.Errorf("percentage coupon value must be between 0 and 100")
		}
	case "fixed":
		if value <= 0 {
			return fmt.Errorf("fixed coupon value must be greater than 0")
		}
	default:
		return fmt.Errorf("discount type must be 'percentage' or 'fixed'")
	}
	return nil
}
