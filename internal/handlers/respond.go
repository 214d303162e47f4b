package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/errordata"
	"github.com/MForte-AI/character-dev-1225/internal/services"
)

const genericErrorMessage = "An unexpected error occurred"

// errorStatus maps a service error to the status and message the caller
// sees. Anything unrecognised is a 500 with a generic message.
func errorStatus(err error) (int, string) {
	var verr *services.ValidationError
	var perr *services.ProviderError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.As(err, &perr):
		status := perr.Status
		if status < 400 {
			status = http.StatusInternalServerError
		}
		msg := perr.Message
		if msg == "" {
			msg = genericErrorMessage
		}
		return status, msg
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrReadOnly):
		return http.StatusForbidden, services.ErrReadOnly.Error()
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, services.ErrStorageDenied):
		return http.StatusServiceUnavailable, "File storage is not available"
	default:
		return http.StatusInternalServerError, genericErrorMessage
	}
}

func respondError(c *gin.Context, err error) {
	errordata.Record(c.Request.Context(), err)
	status, msg := errorStatus(err)
	c.JSON(status, gin.H{"message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// uuidParam parses a path parameter, answering 400 itself when it is not a
// uuid.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, name+" must be a valid id")
		return uuid.Nil, false
	}
	return id, true
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
