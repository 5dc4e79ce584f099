package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/r2gate/internal/domain"
	"github.com/timmy/r2gate/internal/logger"
)

// ErrReadUpload means a parsed upload could not be read back on the server.
var ErrReadUpload = errors.New("failed to read uploaded file")

// ErrorBody is the envelope for every error response.
type ErrorBody struct {
	Error APIError `json:"error"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: APIError{Code: code, Message: msg}})
}

// MapError translates gateway and domain errors to HTTP status codes and error codes.
func MapError(err error) (status int, code string) {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, "MISSING_FILE"
	case errors.Is(err, domain.ErrMissingKey):
		return http.StatusBadRequest, "MISSING_KEY"
	case errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest, "INVALID_PARAMETER"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.Is(err, ErrReadUpload):
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	case errors.Is(err, domain.ErrObjectNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	default:
		return http.StatusBadGateway, "STORAGE_ERROR"
	}
}

// HandleError maps err and writes the response. Storage failures are logged.
func HandleError(c *gin.Context, err error) {
	status, code := MapError(err)
	if status >= http.StatusInternalServerError {
		logger.With(logger.Fields{
			logger.FieldStatus: status,
			"error":            err.Error(),
		}).Error(c.Request.Context(), "Request failed")
	}
	RespondError(c, status, code, err.Error())
}
