package validators

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,16}$`)

// CustomValidator plugs validator/v10 into echo's c.Validate.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns an echo.Validator with the app's custom tags registered.
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("handle", validateHandle)
	_ = v.RegisterValidation("nospace", validateNoSpace)
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, Describe(err))
	}
	return nil
}

// ValidHandle reports whether s is 3..16 chars of lowercase letters, digits or underscores.
func ValidHandle(s string) bool {
	return handlePattern.MatchString(s)
}

func validateHandle(fl validator.FieldLevel) bool {
	return ValidHandle(fl.Field().String())
}

func validateNoSpace(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), " \t\r\n")
}

// Describe turns validator errors into a single readable message.
func Describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + fe.Param() + " long"
	case "max":
		return field + " must be at most " + fe.Param() + " long"
	case "handle":
		return field + " must be 3-16 characters: lowercase letters, numbers or underscores"
	case "nospace":
		return field + " cannot contain spaces"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	}
	return field + " is invalid"
}
