package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON/query/path names so errors match what clients send.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ReadAndValidateRequest binds, applies defaults and validates req. It returns
// nil or a []ValidationError ready for BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return bindErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func bindErrors(err error) []ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationError{{
			Code:    "ERR_TYPE",
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be %s", typeErr.Field, jsonKind(typeErr.Type)),
		}}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return []ValidationError{{Code: "ERR_MALFORMED", Message: "request body is not valid JSON"}}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_BAD_REQUEST", Message: fmt.Sprint(he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		if t.PkgPath() == "encoding/json" && t.Name() == "Number" {
			return "a number"
		}
		return "a string"
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Float64:
		return "a number"
	case reflect.Bool:
		return "a boolean"
	default:
		return "a " + t.Kind().String()
	}
}

func fieldErrors(err error) []ValidationError {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(ves))
	for _, fe := range ves {
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Params:  fieldParams(fe),
		})
	}
	return out
}

var tagMessages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email",
	"numeric":  "%s must be a number",
	"uuid":     "%s must be a valid UUID",
	"gt":       "%s must be greater than %s",
	"gte":      "%s must be greater than or equal to %s",
	"lt":       "%s must be less than %s",
	"lte":      "%s must be less than or equal to %s",
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch tag := fe.Tag(); tag {
	case "min", "max":
		bound := "at least"
		if tag == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters", field, bound, fe.Param())
		}
		return fmt.Sprintf("%s must be %s %s", field, bound, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		if tmpl, ok := tagMessages[tag]; ok {
			if strings.Count(tmpl, "%s") == 2 {
				return fmt.Sprintf(tmpl, field, fe.Param())
			}
			return fmt.Sprintf(tmpl, field)
		}
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}

func fieldParams(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "min", "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "gt", "lt":
		return map[string]interface{}{"value": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Split(fe.Param(), " ")}
	}
	return nil
}
