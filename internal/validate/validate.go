// Package validate checks request payloads against struct tags and turns
// failures into field-level messages.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by Struct when validation fails.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	_ = val.RegisterValidation("notblank", validators.NotBlank)
	_ = val.RegisterValidation("minwords", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(strings.Fields(fl.Field().String())) >= n
	})
	_ = val.RegisterValidation("maxwords", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(strings.Fields(fl.Field().String())) <= n
	})
	return val
}

// Struct validates s. It returns Errors for rule failures and a plain error
// if s cannot be validated at all.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		out = append(out, FieldError{Field: field, Message: message(field, fe)})
	}
	return out
}

// fieldPath drops the root struct name from a namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(field string, fe validator.FieldError) string {
	kind := fe.Kind()
	param := fe.Param()

	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("%s must contain at least %s item(s)", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("%s must contain at most %s item(s)", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "minwords":
		return fmt.Sprintf("%s must contain at least %s words", field, param)
	case "maxwords":
		return fmt.Sprintf("%s must contain at most %s words", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(param), ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "uri", "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "eq":
		if kind == reflect.Bool && param == "true" {
			return fmt.Sprintf("%s must be accepted", field)
		}
		return fmt.Sprintf("%s must equal %s", field, param)
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}
