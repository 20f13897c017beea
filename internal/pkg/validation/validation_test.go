package validation_test

import (
	"errors"
	"testing"

	"github.com/Leopold1975/microblog/internal/microblog/domain/errs"
	"github.com/Leopold1975/microblog/internal/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUp struct {
	Name     string `json:"name"     validate:"required,min=3,max=32,username"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestValidate(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Validate(signUp{Name: "john_doe-1", Password: "secret"}))

	err := v.Validate(signUp{Name: "jo hn", Password: "123"})
	require.ErrorIs(t, err, errs.ErrValidation)

	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields["name"], "Latin letters")
	assert.Equal(t, "must be at least 6 characters", ve.Fields["password"])
}

func TestValidateLength(t *testing.T) {
	v := validation.New()

	err := v.Validate(signUp{Name: "ab", Password: "secret"})

	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "must be at least 3 characters", ve.Fields["name"])
	assert.NotContains(t, ve.Fields, "password")
}
