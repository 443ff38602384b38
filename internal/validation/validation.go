package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"familybudget/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	MinFamilyNameLength = 2
	MinPasswordLength   = 6
)

// ErrValidation matches every ValidationError under errors.Is
var ErrValidation = errors.New("validation failed")

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidateFamilyName checks the registration name. Length is counted in
// characters after trimming.
func ValidateFamilyName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "family name is required"}
	}
	if utf8.RuneCountInString(name) < MinFamilyNameLength {
		return ValidationError{Field: "name", Message: "family name must be at least 2 characters long"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: "password must be at least 6 characters long"}
	}
	return nil
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateMemberName checks that a member has a non-blank name
func ValidateMemberName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "name", Message: "member name is required"}
	}
	return nil
}

// ValidateSalary rejects negative salaries
func ValidateSalary(salary decimal.Decimal) error {
	if salary.IsNegative() {
		return ValidationError{Field: "salary", Message: "salary cannot be negative"}
	}
	return nil
}

// ValidateExpense checks the fields of a new expense. A zero amount counts
// as missing.
func ValidateExpense(description string, amount decimal.Decimal, category models.Category) error {
	if strings.TrimSpace(description) == "" {
		return ValidationError{Field: "description", Message: "description is required"}
	}
	if amount.IsZero() {
		return ValidationError{Field: "amount", Message: "amount is required"}
	}
	if amount.IsNegative() {
		return ValidationError{Field: "amount", Message: "amount cannot be negative"}
	}
	if category == "" {
		return ValidationError{Field: "category", Message: "category is required"}
	}
	if !category.IsValid() {
		return ValidationError{Field: "category", Message: fmt.Sprintf("%q is not a valid category", string(category))}
	}
	return nil
}
