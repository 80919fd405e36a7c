package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/flicky/storefront-api/internal/logging"
	"github.com/flicky/storefront-api/internal/service"
)

var kindStatus = []struct {
	kind   error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrConflict, http.StatusConflict},
}

// writeError maps a service error to its status. Unclassified errors are
// logged and reported as a bare 500.
func writeError(c *gin.Context, err error) {
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			c.JSON(ks.status, gin.H{"message": err.Error()})
			return
		}
	}
	logging.FromContext(c.Request.Context()).Error("request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
}

// writeBindError reports a request that failed decoding or binding rules.
func writeBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "request body too large"})
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": fieldMessage(verrs[0])})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "invalid email"
	case "mobile_in":
		return service.ErrInvalidPhone.Error()
	case "pincode":
		return service.ErrInvalidPincode.Error()
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	}
	return "invalid " + fe.Field()
}
