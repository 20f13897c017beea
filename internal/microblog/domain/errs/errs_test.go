package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Leopold1975/microblog/internal/microblog/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	err := fmt.Errorf("sign in error: %w", errs.New(errs.ErrUnauthorized, "Invalid credentials"))

	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.NotErrorIs(t, err, errs.ErrNotFound)

	var public *errs.Error
	require.True(t, errors.As(err, &public))
	assert.Equal(t, "Invalid credentials", public.Msg)
}

func TestValidationError(t *testing.T) {
	err := &errs.ValidationError{Fields: map[string]string{
		"password": "is required",
		"name":     "is required",
	}}

	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, "validation failed: name is required; password is required", err.Error())
}
