package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapToHTTPStatus(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{ErrInvalidIdentity, http.StatusBadRequest},
		{ErrSelfReference, http.StatusBadRequest},
		{ErrInvalidPassword, http.StatusBadRequest},
		{ErrUserAlreadyExists, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrBlocked, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrStorageFailure, http.StatusInternalServerError},
		{fmt.Errorf("anything else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		req.Equal(tt.status, MapToHTTPStatus(tt.err), "err=%v", tt.err)
	}
}

func TestMapToHTTPStatus_SeesThroughWrapping(t *testing.T) {
	req := require.New(t)

	wrapped := fmt.Errorf("%w: badger unavailable", ErrStorageFailure)
	req.Equal(http.StatusInternalServerError, MapToHTTPStatus(wrapped))

	wrapped = fmt.Errorf("%w: %v", ErrBlocked, "either direction")
	req.Equal(http.StatusForbidden, MapToHTTPStatus(wrapped))
}
