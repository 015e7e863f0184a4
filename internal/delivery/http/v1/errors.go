package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/remote"
	"github.com/adanyl0v/go-todo-sync/internal/services"
)

var (
	errInvalidRequestBody = errors.New("invalid request body")
	errInvalidToken       = errors.New("invalid token")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

// newOperationError maps an error carried by a services.Result.
func newOperationError(err error) apiError {
	switch {
	case errors.Is(err, models.ErrTitleRequired),
		errors.Is(err, models.ErrTitleTooLong),
		errors.Is(err, models.ErrDescriptionTooLong),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrEmptyTaskIdentifier),
		errors.Is(err, services.ErrEmptyUpdate),
		errors.Is(err, remote.ErrValidation):
		return newBadRequestError(err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, remote.ErrNotFound):
		return newNotFoundError(err.Error())
	case errors.Is(err, services.ErrNoIdentity),
		errors.Is(err, remote.ErrUnauthorized):
		return newUnauthorizedError(err.Error())
	case errors.Is(err, services.ErrIdentityChanged):
		return newConflictError(err.Error())
	case errors.Is(err, remote.ErrInvalidResponse):
		return newStatusTextError(http.StatusBadGateway)
	case errors.Is(err, remote.ErrNetwork):
		return newStatusTextError(http.StatusServiceUnavailable)
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}
