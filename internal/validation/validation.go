// Package validation checks DTOs before they are sent and after they are
// received, reporting problems per JSON field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/devfolio/portfolio-sync/internal/models"
)

// Errors maps a JSON field name to a human readable message
type Errors map[string]string

// HasErrors reports whether any field failed
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// Add records a message for a field, keeping the first one
func (e Errors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Error renders the fields in a stable order
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New()

		// Report JSON names so errors line up with form fields
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugRegex.MatchString(fl.Field().String())
		})

		v.RegisterStructValidation(dateRange,
			models.CreateExperienceRequest{},
			models.CreateEducationRequest{},
			models.CreateProjectRequest{},
		)

		validate = v
	})
	return validate
}

// Struct validates v and returns Errors when any rule fails
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate %T: %w", v, err)
	}

	errs := make(Errors)
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

// Slice validates every element, prefixing fields with the element index
func Slice[T any](items []T) error {
	errs := make(Errors)
	for i := range items {
		err := Struct(items[i])
		if err == nil {
			continue
		}
		var itemErrs Errors
		if !errors.As(err, &itemErrs) {
			return err
		}
		for field, msg := range itemErrs {
			errs.Add(fmt.Sprintf("[%d].%s", i, field), msg)
		}
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func dateRange(sl validator.StructLevel) {
	switch r := sl.Current().Interface().(type) {
	case models.CreateExperienceRequest:
		checkRange(sl, r.StartDate, r.EndDate, r.Current, true)
	case models.CreateEducationRequest:
		checkRange(sl, r.StartDate, r.EndDate, r.Current, true)
	case models.CreateProjectRequest:
		checkRange(sl, r.StartDate, r.EndDate, false, false)
	}
}

func checkRange(sl validator.StructLevel, start models.Date, end *models.Date, current, startRequired bool) {
	if startRequired && start.IsZero() {
		sl.ReportError(start, "startDate", "StartDate", "required", "")
	}
	if end == nil || end.IsZero() {
		return
	}
	if current {
		sl.ReportError(end, "endDate", "EndDate", "excluded_if", "current")
		return
	}
	if !start.IsZero() && end.Before(start.Time) {
		sl.ReportError(end, "endDate", "EndDate", "gtefield", "startDate")
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "slug":
		return "can only contain lowercase letters, numbers and dashes"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "excluded_if":
		return "must be empty when " + fe.Param() + " is set"
	case "gtefield":
		return "must not be before " + fe.Param()
	default:
		return "is invalid"
	}
}
