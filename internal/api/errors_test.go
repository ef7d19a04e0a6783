package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/upkeepai/upkeep-api/internal/service/auth"
	"github.com/upkeepai/upkeep-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired refresh token", auth.ErrExpiredRefreshToken, http.StatusUnauthorized},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"item not found", store.ErrItemNotFound, http.StatusNotFound},
		{"wrapped item not found", fmt.Errorf("get: %w", store.ErrItemNotFound), http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessageNeverEchoesInternals(t *testing.T) {
	internal := errors.New("pq: duplicate key value violates unique constraint users_email_key")
	msg := GetSafeErrorMessage(internal)
	assert.NotContains(t, msg, "pq:")
	assert.Equal(t, "An unexpected error occurred", msg)

	assert.Equal(t, "Item not found", GetSafeErrorMessage(store.ErrItemNotFound))
	assert.Equal(t, "Email already exists", GetSafeErrorMessage(store.ErrEmailExists))
}

func TestSanitizeValidationError(t *testing.T) {
	v := validator.New()
	err := v.Struct(LoginRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, "Invalid Email: invalid email format", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
