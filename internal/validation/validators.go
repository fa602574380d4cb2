package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/benvon/sneaker-inventory/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// report JSON field names instead of Go field names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := Validate.RegisterValidation("finite", validateFinite); err != nil {
		panic(fmt.Sprintf("failed to register finite validator: %v", err))
	}
}

func validateFinite(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		v := fl.Field().Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	default:
		return true
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return strings.TrimSpace(sanitized.String())
}

// ShoeCreateRequest normalizes req in place and validates it. Text fields are
// sanitized first so whitespace-only values fail the required rule.
func ShoeCreateRequest(req *models.ShoeCreateRequest) error {
	if req == nil {
		return errors.New("request body is required")
	}

	req.UPC = SanitizeText(req.UPC)
	req.Name = SanitizeText(req.Name)
	req.Size = SanitizeText(req.Size)
	req.Condition = SanitizeText(req.Condition)

	return Validate.Struct(req)
}

// Describe turns validator errors into a single client-facing message such as
// "name is required; upc must be at most 64 characters". Other errors pass through as-is.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "finite":
		return field + " must be a finite number"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// IsValidationError reports whether err came from struct validation
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
