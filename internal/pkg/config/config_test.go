package config_test

import (
	"testing"

	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsSharedSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")

	_, err := config.New("")
	require.ErrorIs(t, err, config.ErrSameSecrets)
}

func TestNewFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("DB_DRIVER", config.DriverPostgres)

	cfg, err := config.New("")
	require.NoError(t, err)
	require.Equal(t, "access", cfg.Auth.AccessSecret)
	require.Equal(t, "refresh", cfg.Auth.RefreshSecret)
	require.Equal(t, config.DriverPostgres, cfg.DB.Driver)
	require.False(t, cfg.Auth.Production())
}
