package validator

import (
	"log"
	"strings"

	"messaging_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules registers the project's validation tags on v.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("not-blank", validateNotBlank)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles empty values
	}
	return models.UserRole(value).Valid()
}

// validateNotBlank rejects strings made only of whitespace.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
