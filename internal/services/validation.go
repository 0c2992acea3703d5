package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/healthtracker/backend/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

// FormValidator validates parsed forms declared with `validate` struct tags.
//
// Failures are reported per form field (the `form` tag) with a human readable text:
// the field's `message` tag when present, otherwise a text built from its `label` tag
// and the failing rule.
type FormValidator struct {
	validate *validator.Validate
}

// NewFormValidator creates a validator with the application's custom rules registered
func NewFormValidator() *FormValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// RegisterValidation only fails on an empty tag or a nil func
	_ = v.RegisterValidation("username", validateUsername)
	_ = v.RegisterValidation("password", validatePassword)

	return &FormValidator{validate: v}
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	return utf8.RuneCountInString(password) >= minPasswordLength && len(password) <= maxPasswordBytes
}

// Validate checks input (a pointer to a form struct) and adds one message per failing field to errs.
// Fields that already have a message in errs keep it.
// The returned error is only set when input is not a validatable struct.
func (v *FormValidator) Validate(input any, errs models.ValidationErrors) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	t := structType(input)
	for _, fe := range fieldErrs {
		field, _ := t.FieldByName(fe.StructField())
		errs.Add(fe.Field(), fieldMessage(field, fe))
	}

	return nil
}

// Invalid records that the raw value of a struct field could not be parsed
func (v *FormValidator) Invalid(errs models.ValidationErrors, input any, structField string) {
	field, ok := structType(input).FieldByName(structField)
	if !ok {
		return
	}

	key := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
	if key == "" {
		key = field.Name
	}
	if msg := field.Tag.Get("message"); msg != "" {
		errs.Add(key, msg)
		return
	}
	errs.Add(key, fmt.Sprintf("%s must be a number.", fieldLabel(field)))
}

func structType(input any) reflect.Type {
	t := reflect.TypeOf(input)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func fieldLabel(field reflect.StructField) string {
	if label := field.Tag.Get("label"); label != "" {
		return label
	}
	return field.Name
}

func fieldMessage(field reflect.StructField, fe validator.FieldError) string {
	if msg := field.Tag.Get("message"); msg != "" {
		return msg
	}

	label := fieldLabel(field)
	isText := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "email":
		return "Please enter a valid email address."
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD).", label)
	case "eqfield":
		return fmt.Sprintf("%s does not match.", label)
	case "max", "lte":
		if isText {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "min", "gte":
		if isText {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

// parseOptionalInt parses a trimmed form value; an empty value is nil
func parseOptionalInt(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// parseOptionalFloat parses a trimmed form value; an empty value is nil
func parseOptionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
