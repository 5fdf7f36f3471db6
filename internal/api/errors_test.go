package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"service not found", service.ErrTaskNotFound, http.StatusNotFound},
		{"store not found", fmt.Errorf("get: %w", store.ErrTaskNotFound), http.StatusNotFound},
		{"service conflict", service.ErrTaskConflict, http.StatusConflict},
		{"store conflict", store.ErrVersionConflict, http.StatusConflict},
		{"domain validation", &service.TaskServiceError{Operation: "create_task", Err: domain.ErrTaskTitleEmpty}, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, msgUnexpectedErr},
		{"not found", service.ErrTaskNotFound, msgTaskNotFound},
		{"conflict", service.ErrTaskConflict, msgTaskConflict},
		{"empty title", fmt.Errorf("wrap: %w", domain.ErrTaskTitleEmpty), "Title is required"},
		{"bad priority", domain.ErrInvalidTaskPriority, "Priority must be one of low, medium, high"},
		{"other validation", domain.ErrTaskAssigneeEmpty, msgInvalidTask},
		{"expired", auth.ErrExpiredToken, "Token expired"},
		{"invalid token", auth.ErrInvalidToken, msgInvalidToken},
		{"internal", errors.New("pq: relation tasks does not exist"), msgUnexpectedErr},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	v := validator.New()
	err := v.Struct(CreateTaskRequest{Title: "x", Priority: "urgent"})
	assert.Equal(t, "Invalid priority: invalid value", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
