// Package validation wraps go-playground/validator with the engine's custom
// tags and maps failures onto domain sentinel errors.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/okian/skillswap/internal/domain/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

func (e FieldError) String() string {
	if e.Param != "" {
		return fmt.Sprintf("%s failed %s=%s", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s failed %s", e.Field, e.Tag)
}

// Error collects field failures. It unwraps to the domain sentinel it was
// raised for.
type Error struct {
	kind   error
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%v: %s", e.kind, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return e.kind }

// GetValidator returns the shared validator with custom tags registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := model.ParseClock(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Struct validates s and wraps failures in kind.
func Struct(s any, kind error) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", kind, err)
	}
	out := &Error{kind: kind}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Namespace(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// Filters validates candidate filters, including that a time window, when
// both ends are given, is not empty.
func Filters(f model.Filters) error {
	if err := Struct(f, model.ErrInvalidFilters); err != nil {
		return err
	}
	if f.AvailableFrom != "" && f.AvailableTo != "" {
		from, _ := model.ParseClock(f.AvailableFrom)
		to, _ := model.ParseClock(f.AvailableTo)
		if from >= to {
			return &Error{kind: model.ErrInvalidFilters, Fields: []FieldError{
				{Field: "Filters.AvailableTo", Tag: "gtfield", Param: "AvailableFrom"},
			}}
		}
	}
	return nil
}

// Decision is the body of a decision request.
type Decision struct {
	Decision string `json:"decision" validate:"required,oneof=FAVORITE PASS BLOCK VIEW"`
}

// DecisionType validates a decision name and returns its type.
func DecisionType(d Decision) (model.InteractionType, error) {
	d.Decision = strings.ToUpper(strings.TrimSpace(d.Decision))
	if err := Struct(d, model.ErrInvalidDecision); err != nil {
		return "", err
	}
	return model.InteractionType(d.Decision), nil
}
