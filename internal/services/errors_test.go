package services

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  *ServiceError
		want int
	}{
		{"validation", NewValidationError("bad input", nil), http.StatusBadRequest},
		{"business", NewBusinessError("item is sold", "ITEM_SOLD"), http.StatusUnprocessableEntity},
		{"not found", NewNotFoundError("no such thing"), http.StatusNotFound},
		{"unauthorized", NewUnauthorizedError("who are you"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("not yours"), http.StatusForbidden},
		{"conflict", NewConflictError("already responded", "OFFER_RESOLVED"), http.StatusConflict},
		{"rate limit", NewRateLimitError("slow down", nil), http.StatusTooManyRequests},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError},
		{"unavailable", NewServiceUnavailableError("try later"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.GetStatusCode())
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFoundError(NewNotFoundError("x")))
	assert.False(t, IsNotFoundError(NewConflictError("x", "")))
	assert.True(t, IsConflictError(NewConflictError("x", "")))
	assert.True(t, IsValidationError(NewValidationError("x", nil)))
	assert.True(t, IsForbiddenError(NewForbiddenError("x")))
	assert.True(t, IsBusinessError(NewBusinessError("x", "CODE")))
	assert.False(t, IsBusinessError(errors.New("plain")))
}

func TestGetServiceErrorWrapsPlainErrors(t *testing.T) {
	plain := errors.New("connection refused")
	wrapped := GetServiceError(plain)
	require.NotNil(t, wrapped)
	assert.Equal(t, "INTERNAL_ERROR", wrapped.Type)
	assert.Equal(t, http.StatusInternalServerError, wrapped.GetStatusCode())
	assert.ErrorIs(t, wrapped, plain, "the cause stays reachable through Unwrap")

	svcErr := NewConflictError("dup", "DUP")
	assert.Same(t, svcErr, GetServiceError(svcErr), "service errors pass through untouched")
}

func TestEntityNotFoundErrorDetails(t *testing.T) {
	err := EntityNotFoundError("listing", int64(42))
	assert.Equal(t, http.StatusNotFound, err.GetStatusCode())
	require.NotNil(t, err.Details)
	assert.Equal(t, "listing", err.Details["resource"])
	assert.Equal(t, int64(42), err.Details["id"])
	assert.Contains(t, err.Error(), "listing not found")
}

func TestSellerOnlyError(t *testing.T) {
	err := SellerOnlyError("delete")
	assert.Equal(t, http.StatusForbidden, err.GetStatusCode())
	assert.Contains(t, err.Message, "only the seller can delete")
}

func TestServiceErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("pq: deadlock detected")
	err := NewInternalError("failed to update", cause)
	assert.Contains(t, err.Error(), "failed to update")
	assert.Contains(t, err.Error(), "deadlock detected")
}
