package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strings"  // Field name formatting

	"expense_tracker/internal/domain" // Domain errors

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/go-playground/validator/v10" // Binding errors
	"github.com/sirupsen/logrus"             // Logging
)

// respondError maps err onto the HTTP error contract; resource names the
// entity in not-found and conflict messages
func respondError(c *gin.Context, err error, resource string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Validation failed", "errors": verr.Fields})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": resource + " not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": resource + " already exists with this email or username"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid credentials"})
	default:
		_ = c.Error(err)
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err,
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
	}
}

// bindJSON binds the request body into dst and answers 400 with field errors on failure
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, bindingError(err), "")
		return false
	}
	return true
}

// bindingError converts a gin binding error into a ValidationError
func bindingError(err error) *domain.ValidationError {
	v := domain.NewValidationError()
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.Add("body", "invalid JSON body")
		return v
	}
	for _, fe := range fieldErrs {
		v.Add(jsonName(fe.Field()), fieldMessage(fe))
	}
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "money":
		return "must be greater than 0 with at most 2 decimal places and less than " + domain.MaxAmount.String()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// jsonName turns a Go field name into the camelCase name clients send
func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
