package validator

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"gallery-api/internal/apperr"
)

const msgInvalidBody = "invalid request body"

func init() {
	binding.EnableDecoderDisallowUnknownFields = true

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonName)
	}
}

// jsonName reports fields by the name clients send.
func jsonName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// BindJSON decodes the body into dst. Unknown fields, malformed JSON and
// binding rule failures all become validation errors.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return translate(err)
	}
	return nil
}

func BindQuery(c *gin.Context, dst any) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return apperr.Validation(msgInvalidBody, FieldErrors(ve))
	}

	if errors.Is(err, io.EOF) {
		return apperr.Validation(msgInvalidBody, "request body is empty")
	}

	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		return apperr.Validation(msgInvalidBody, "malformed JSON")
	case errors.As(err, &typ):
		return apperr.Validation(msgInvalidBody, map[string]string{typ.Field: "must be " + typ.Type.String()})
	}

	return apperr.Validation(msgInvalidBody, err.Error())
}

func FieldErrors(ve validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	default:
		return "failed " + fe.Tag() + " rule"
	}
}
