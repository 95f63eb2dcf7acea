package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Input validation for form submissions. Values are checked for shape
// only; credentials and model ids are never checked against the provider.

// AnalyzeForm holds the text fields of POST /analyze.
type AnalyzeForm struct {
	APIKey  string `form:"api_key" validate:"required"`
	ModelID string `form:"model_id" validate:"required,modelid"`
	Focus   string `form:"focus" validate:"required,max=1000"`
}

// LoginForm is the shell's credential form.
type LoginForm struct {
	APIKey string `form:"api_key" validate:"required,max=512"`
}

// ExecuteForm is the shell's analysis form (file handled separately).
type ExecuteForm struct {
	ModelID string   `form:"model_id" validate:"required,modelid"`
	Focus   []string `form:"focus" validate:"required,min=1,dive,required,max=100"`
	Depth   string   `form:"search_depth" validate:"omitempty,oneof=Direct General Comprehensive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("modelid", validateModelID)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateModelID accepts provider ids such as
// "meta-llama/llama-4-scout-17b-16e-instruct": printable, no spaces.
func validateModelID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || len(s) > 128 {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// FieldError names the first form field that failed validation.
type FieldError struct {
	Field string
	Tag   string
}

func (e *FieldError) Error() string {
	switch e.Tag {
	case "required", "min":
		return fmt.Sprintf("field required: %s", e.Field)
	case "modelid":
		return fmt.Sprintf("invalid model id: %s", e.Field)
	}
	return fmt.Sprintf("invalid value for %s", e.Field)
}

// ValidateForm validates s and returns a *FieldError for the first failure.
func ValidateForm(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &FieldError{Field: verrs[0].Field(), Tag: verrs[0].Tag()}
	}
	return err
}
