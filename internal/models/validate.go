package models

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func draftValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report json field names so messages match the wire format.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// JSON has no encoding for Inf or NaN.
		if err := validate.RegisterValidation("finite", isFinite); err != nil {
			panic(err)
		}
	})
	return validate
}

func isFinite(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// FieldError describes one rejected draft field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when a draft fails client-side or server-side
// validation. It is never produced by a network round trip.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Message))
	}
	return "invalid product: " + strings.Join(parts, ", ")
}

// Field returns the message for the named field, or "" if it passed.
func (e *ValidationError) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// Validate checks the draft's required fields and price bound. Names and
// categories consisting only of whitespace are treated as empty.
func (d Draft) Validate() error {
	trimmed := d
	trimmed.Name = strings.TrimSpace(d.Name)
	trimmed.Description = strings.TrimSpace(d.Description)
	trimmed.Category = strings.TrimSpace(d.Category)

	err := draftValidator().Struct(trimmed)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate draft: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "finite":
		return "must be a finite number"
	default:
		return "is invalid"
	}
}
