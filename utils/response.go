package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-booking-backend/models"
)

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// JSONDomainError maps the domain error taxonomy onto HTTP codes. Conflicts
// surface as "dates no longer available"; signature failures are reported as a
// plain bad request so nothing about the trust boundary leaks to the sender.
func JSONDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		JSONError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrConflict):
		JSONError(c, http.StatusConflict, "dates no longer available, please re-select")
	case errors.Is(err, models.ErrState):
		JSONError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrSignature):
		JSONError(c, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, models.ErrForbidden):
		JSONError(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, models.ErrNotFound):
		JSONError(c, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrGatewayUnavailable):
		JSONError(c, http.StatusServiceUnavailable, "payment gateway unavailable, please retry")
	default:
		JSONError(c, http.StatusInternalServerError, "internal error")
	}
}
