package jwtauth_test

import (
	"testing"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/pkg/jwtauth"
	"github.com/stretchr/testify/require"
)

func TestGetAndValidateToken(t *testing.T) {
	u := models.User{ID: "user-1", Name: "alice"}

	token, err := jwtauth.GetToken(u, jwtauth.Access, time.Minute, "access-secret")
	require.NoError(t, err)

	claims, err := jwtauth.ValidateToken(token, jwtauth.Access, "access-secret")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "alice", claims.Name)
	require.Equal(t, jwtauth.Access, claims.Type)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	u := models.User{ID: "user-1", Name: "alice"}

	token, err := jwtauth.GetToken(u, jwtauth.Access, time.Minute, "access-secret")
	require.NoError(t, err)

	_, err = jwtauth.ValidateToken(token, jwtauth.Access, "refresh-secret")
	require.Error(t, err)
}

func TestValidateTokenWrongType(t *testing.T) {
	u := models.User{ID: "user-1", Name: "alice"}

	token, err := jwtauth.GetToken(u, jwtauth.Refresh, time.Minute, "shared")
	require.NoError(t, err)

	_, err = jwtauth.ValidateToken(token, jwtauth.Access, "shared")
	require.ErrorIs(t, err, jwtauth.ErrWrongType)

	_, err = jwtauth.ValidateToken(token, jwtauth.Refresh, "shared")
	require.NoError(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	u := models.User{ID: "user-1", Name: "alice"}

	token, err := jwtauth.GetToken(u, jwtauth.Access, -time.Minute, "access-secret")
	require.NoError(t, err)

	_, err = jwtauth.ValidateToken(token, jwtauth.Access, "access-secret")
	require.Error(t, err)
}

func TestTokensAreUnique(t *testing.T) {
	u := models.User{ID: "user-1", Name: "alice"}

	first, err := jwtauth.GetToken(u, jwtauth.Access, time.Minute, "s")
	require.NoError(t, err)

	second, err := jwtauth.GetToken(u, jwtauth.Access, time.Minute, "s")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestValidateGarbage(t *testing.T) {
	_, err := jwtauth.ValidateToken("not-a-token", jwtauth.Access, "s")
	require.Error(t, err)
}
