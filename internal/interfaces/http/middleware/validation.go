package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/homefinder/backend/internal/interfaces/http/dto"
)

// SetupValidator makes binding errors report JSON field names instead
// of Go struct field names.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
}

// HandleValidationError writes a 400 with per-field details for a
// binding failure.
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestIDFrom(c)))
}

// FormatValidationErrors flattens validator errors into the standard
// validation response envelope.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, e := range fieldErrs {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

func requestIDFrom(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(HeaderRequestID)
}

// validationMessage renders the tags used by the search and dataset
// request types; anything else falls through to a generic message.
func validationMessage(e validator.FieldError) string {
	isString := e.Type().Kind() == reflect.String

	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if isString {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if isString {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "url":
		return "Invalid URL format"
	case "numeric":
		return "Must be numeric"
	default:
		return "Invalid value"
	}
}
