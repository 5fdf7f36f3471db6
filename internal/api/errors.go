package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/store"
)

// Client-facing messages.
const (
	msgTaskNotFound  = "Task not found"
	msgTaskConflict  = "Task was modified by another request, reload and retry"
	msgInvalidTask   = "Invalid task data"
	msgInvalidToken  = "Invalid token"
	msgUnexpectedErr = "An unexpected error occurred"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrTaskConflict),
		errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return msgUnexpectedErr
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case MapErrorToStatusCode(err) == http.StatusUnauthorized:
		return msgInvalidToken
	case errors.Is(err, service.ErrTaskNotFound), errors.Is(err, store.ErrNotFound):
		return msgTaskNotFound
	case errors.Is(err, service.ErrTaskConflict), errors.Is(err, store.ErrVersionConflict):
		return msgTaskConflict
	case errors.Is(err, domain.ErrTaskTitleEmpty):
		return "Title is required"
	case errors.Is(err, domain.ErrTaskTitleTooLong):
		return fmt.Sprintf("Title must be at most %d characters", domain.MaxTaskTitleLength)
	case errors.Is(err, domain.ErrInvalidTaskPriority):
		return "Priority must be one of low, medium, high"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return msgInvalidTask
	default:
		return msgUnexpectedErr
	}
}

// HandleAPIError writes the status and safe message for err. A non-empty
// fallback replaces the generic message of 500 responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError turns validator errors into a short message
// naming the first failing field, e.g. "Invalid priority: invalid value".
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
