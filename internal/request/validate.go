package request

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	minAge, maxAge       = 1, 120
	minWeight, maxWeight = 20, 300
	minHeight, maxHeight = 100, 250
)

var (
	intStringRegex     = regexp.MustCompile(`^\d+$`)
	decimalStringRegex = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	sessionIDRegex     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ValidSessionID reports whether s is an acceptable session identifier:
// 1-100 characters drawn from letters, digits, underscores, and hyphens.
func ValidSessionID(s string) bool {
	return len(s) >= 1 && len(s) <= 100 && sessionIDRegex.MatchString(s)
}

// rawFields carries the textual form of every field through tag validation.
// Numeric range checks run afterwards on the converted values.
type rawFields struct {
	Message   string `json:"message"   validate:"omitempty,max=2000"`
	Name      string `json:"name"      validate:"required,min=2,max=100,person_name"`
	Age       string `json:"age"       validate:"required,int_string"`
	Weight    string `json:"weight"    validate:"required,decimal_string"`
	Height    string `json:"height"    validate:"required,int_string"`
	SessionID string `json:"sessionId" validate:"omitempty,min=1,max=100,session_id"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields under their JSON names so clients recognize them.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "person_name", func(fl validator.FieldLevel) bool {
		return isPersonName(fl.Field().String())
	})
	mustRegister(v, "int_string", func(fl validator.FieldLevel) bool {
		return intStringRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "decimal_string", func(fl validator.FieldLevel) bool {
		return decimalStringRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "session_id", func(fl validator.FieldLevel) bool {
		return sessionIDRegex.MatchString(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %q validator: %v", tag, err))
	}
}

func isPersonName(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// validateFields applies every field rule and aggregates the failures.
// imgErrs carries problems found while reading the multipart image.
func validateFields(raw rawFields, img *Image, imgErrs ...FieldError) (*ChatRequest, error) {
	trimAll(&raw)

	var fields []FieldError
	seen := make(map[string]bool)

	if err := validate.Struct(raw); err != nil {
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			return nil, fmt.Errorf("failed to validate request: %w", err)
		}
		for _, fe := range vErrs {
			fields = append(fields, FieldError{Field: fe.Field(), Reason: reasonFor(fe)})
			seen[fe.Field()] = true
		}
	}

	req := &ChatRequest{
		Message:   raw.Message,
		Name:      raw.Name,
		SessionID: raw.SessionID,
		Image:     img,
	}

	if !seen["age"] {
		age, err := strconv.Atoi(raw.Age)
		if err != nil || age < minAge || age > maxAge {
			fields = append(fields, FieldError{
				Field:  "age",
				Reason: fmt.Sprintf("must be between %d and %d", minAge, maxAge),
			})
		} else {
			req.Age = age
		}
	}

	if !seen["weight"] {
		weight, err := strconv.ParseFloat(raw.Weight, 64)
		if err != nil || weight < minWeight || weight > maxWeight {
			fields = append(fields, FieldError{
				Field:  "weight",
				Reason: fmt.Sprintf("must be between %d and %d", minWeight, maxWeight),
			})
		} else {
			req.Weight = weight
		}
	}

	if !seen["height"] {
		height, err := strconv.Atoi(raw.Height)
		if err != nil || height < minHeight || height > maxHeight {
			fields = append(fields, FieldError{
				Field:  "height",
				Reason: fmt.Sprintf("must be between %d and %d", minHeight, maxHeight),
			})
		} else {
			req.Height = height
		}
	}

	if !seen["message"] && raw.Message == "" && img == nil {
		fields = append(fields, FieldError{
			Field:  "message",
			Reason: "is required when no image is attached",
		})
	}

	fields = append(fields, imgErrs...)

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if req.SessionID == "" {
		req.SessionID = defaultSessionID()
	}

	return req, nil
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "person_name":
		return "may only contain letters and spaces"
	case "int_string":
		return "must be a whole number"
	case "decimal_string":
		return "must be a number with at most two decimal places"
	case "session_id":
		return "may only contain letters, digits, underscores, and hyphens"
	default:
		return "is invalid"
	}
}
