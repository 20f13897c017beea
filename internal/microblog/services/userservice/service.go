package userservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/userrepo"
	"github.com/Leopold1975/microblog/pkg/logger"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

type Repository interface {
	SearchUsers(ctx context.Context, req userrepo.SearchRequest) ([]models.User, error)
}

type UserService struct {
	userRepo Repository
	lg       logger.Logger
}

func New(userRepo Repository, lg logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		lg:       lg,
	}
}

type SearchRequest struct {
	Search string
	Limit  *int
}

func (us *UserService) SearchUsers(ctx context.Context, req SearchRequest) ([]models.UserWithColor, error) {
	limit := DefaultLimit
	if req.Limit != nil {
		limit = min(max(*req.Limit, 1), MaxLimit)
	}

	users, err := us.userRepo.SearchUsers(ctx, userrepo.SearchRequest{
		Search: strings.TrimSpace(req.Search),
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search users error: %w", err)
	}

	out := make([]models.UserWithColor, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserWithColor{ID: u.ID, Name: u.Name, Color: u.Color})
	}

	return out, nil
}
