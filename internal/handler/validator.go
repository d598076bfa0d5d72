package handler

import (
    "errors"
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// RequestValidator adapts validator/v10 to echo.Validator.
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    // Report fields by their JSON names.
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

// Validate checks struct tags and reports every failing field in one
// message such as "email: must be a valid email; password: is required".
func (rv *RequestValidator) Validate(i any) error {
    err := rv.v.Struct(i)
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return err
    }
    msgs := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
    }
    return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
    switch fe.Tag() {
    case "required":
        return "is required"
    case "email":
        return "must be a valid email"
    case "min":
        return "must be at least " + fe.Param()
    case "max":
        return "must be at most " + fe.Param()
    case "oneof":
        return "must be one of " + fe.Param()
    case "gte":
        return "must be >= " + fe.Param()
    default:
        return "failed " + fe.Tag()
    }
}
