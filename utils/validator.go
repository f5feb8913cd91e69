package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs struct tag validation and flattens the result into a
// single human-readable error for API responses.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var msgs []string
	for _, err := range err.(validator.ValidationErrors) {
		field := strings.ToLower(err.Field())
		switch err.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, field+" must be at least "+err.Param()+" characters")
		case "max":
			msgs = append(msgs, field+" must be at most "+err.Param()+" characters")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+err.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}

	return fmt.Errorf("%s", strings.Join(msgs, ", "))
}
