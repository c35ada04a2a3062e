package models

import (
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/marshallshelly/superheroes/pkg/runtime"
)

const (
	// MinDescriptionLength is the minimum number of characters in a Power description.
	MinDescriptionLength = 20

	descriptionMessage = "Description must be at least 20 characters long."
	strengthMessage    = "Strength must be one of: 'Strong', 'Weak', 'Average'"
)

// Allowed HeroPower strengths, in declared order.
const (
	StrengthStrong  = "Strong"
	StrengthWeak    = "Weak"
	StrengthAverage = "Average"
)

var strengths = []string{StrengthStrong, StrengthWeak, StrengthAverage}

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Strengths returns the allowed strength literals.
func Strengths() []string {
	return slices.Clone(strengths)
}

// ValidateDescription checks a Power description. Length is counted in
// characters, not bytes.
func ValidateDescription(description string) error {
	if err := validate.Var(description, "min=20"); err != nil {
		return &runtime.ValidationError{Field: "description", Message: descriptionMessage}
	}
	return nil
}

// ValidateStrength checks a HeroPower strength. Matching is exact and
// case-sensitive.
func ValidateStrength(strength string) error {
	if err := validate.Var(strength, "oneof=Strong Weak Average"); err != nil {
		return &runtime.ValidationError{Field: "strength", Message: strengthMessage}
	}
	return nil
}
