package userservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/userrepo"
	"github.com/Leopold1975/microblog/internal/microblog/services/userservice"
	"github.com/Leopold1975/microblog/pkg/logger"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	got   userrepo.SearchRequest
	users []models.User
	err   error
}

func (s *stubRepo) SearchUsers(_ context.Context, req userrepo.SearchRequest) ([]models.User, error) {
	s.got = req

	return s.users, s.err
}

func TestSearchUsers(t *testing.T) {
	hash := "secret"
	repo := &stubRepo{users: []models.User{ //nolint:exhaustruct
		{ID: "u1", Name: "alice", Color: "#ef4444", PasswordHash: &hash},
	}}
	us := userservice.New(repo, logger.NewNop())

	limit := 500

	users, err := us.SearchUsers(context.Background(), userservice.SearchRequest{Search: " Al ", Limit: &limit})
	require.NoError(t, err)
	require.Equal(t, []models.UserWithColor{{ID: "u1", Name: "alice", Color: "#ef4444"}}, users)
	require.Equal(t, userrepo.SearchRequest{Search: "Al", Limit: userservice.MaxLimit}, repo.got)

	_, err = us.SearchUsers(context.Background(), userservice.SearchRequest{}) //nolint:exhaustruct
	require.NoError(t, err)
	require.Equal(t, userservice.DefaultLimit, repo.got.Limit)
}

func TestSearchUsersRepoError(t *testing.T) {
	repo := &stubRepo{err: errors.New("boom")} //nolint:exhaustruct
	us := userservice.New(repo, logger.NewNop())

	_, err := us.SearchUsers(context.Background(), userservice.SearchRequest{}) //nolint:exhaustruct
	require.ErrorContains(t, err, "boom")
}
