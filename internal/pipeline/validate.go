package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
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

	return v
}

// decodes the sanitized body into T and checks its `validate` tags
// every violated rule is collected, in field order, into a validation error
// an empty body is treated as {}
func Validate[T any]() Stage {
	return Stage{
		Name:  "validate",
		State: StateValidated,
		Run: func(req *Request) Outcome {
			input := new(T)

			body := req.Body
			if len(body) == 0 {
				body = []byte("{}")
			}

			if err := json.Unmarshal(body, input); err != nil {
				return Fail(decodeError(err))
			}

			if err := validate.Struct(input); err != nil {
				var verrs validator.ValidationErrors
				if errors.As(err, &verrs) {
					return Fail(apperrors.Validation(fieldErrors(verrs)))
				}

				return Fail(apperrors.Internal(fmt.Errorf("validate %T: %w", input, err)))
			}

			req.Input = input
			return Continue()
		},
	}
}

// returns the validated input of a request, or nil when none of type T was bound
func InputOf[T any](req *Request) *T {
	v, _ := req.Input.(*T)
	return v
}

// maps decode failures on a known field to field-level validation errors
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return apperrors.BadRequest("request body must be a JSON object").WithCause(err)
		}

		fields := apperrors.FieldErrors{}.Add(typeErr.Field, "must be a "+jsonType(typeErr.Type))
		return apperrors.Validation(fields).WithCause(err)
	}

	return apperrors.From(err)
}

func fieldErrors(verrs validator.ValidationErrors) apperrors.FieldErrors {
	var fields apperrors.FieldErrors
	for _, fe := range verrs {
		fields = fields.Add(fieldPath(fe), fieldMessage(fe))
	}

	return fields
}

// namespace without the root struct name, e.g. "address.city"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}

	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "max":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit)
	case "len":
		return fmt.Sprintf("must be exactly %s%s", fe.Param(), unit)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "url", "http_url":
		return "must be a valid URL"
	case "alphanum":
		return "must contain only letters and digits"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
