package httpserver

import (
	"errors"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const maxProductNameLen = 200

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// ParseProductID converts the {id} path segment into a list index.
func ParseProductID(raw string) (int, *ValidationError) {
	if raw == "" {
		return 0, &ValidationError{Field: "id", Code: "REQUIRED", Message: "Product ID is required"}
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: "id", Code: "INVALID_FORMAT", Message: "Product ID must be an integer"}
	}
	return id, nil
}

// ValidateProductName enforces the length limit. Emptiness is a service-level rule.
func ValidateProductName(name string) *ValidationError {
	err := getValidator().Var(name, "max="+strconv.Itoa(maxProductNameLen))
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		return &ValidationError{Field: "name", Code: "TOO_LONG", Message: "Product name is too long (max 200 characters)"}
	}
	return &ValidationError{Field: "name", Code: "INVALID", Message: err.Error()}
}
