package tagservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/tagrepo"
	"github.com/Leopold1975/microblog/pkg/logger"
)

const (
	DefaultLimit = 20
	MaxLimit     = 20
)

type Repository interface {
	SearchTags(ctx context.Context, req tagrepo.SearchRequest) ([]models.Tag, error)
}

type TagService struct {
	tagRepo Repository
	lg      logger.Logger
}

func New(tagRepo Repository, lg logger.Logger) *TagService {
	return &TagService{
		tagRepo: tagRepo,
		lg:      lg,
	}
}

type SearchRequest struct {
	Search string
	Limit  *int
}

// SearchTags returns tags whose name contains the search string, ignoring case.
func (ts *TagService) SearchTags(ctx context.Context, req SearchRequest) ([]models.TagRef, error) {
	tags, err := ts.tagRepo.SearchTags(ctx, tagrepo.SearchRequest{
		Search: strings.TrimSpace(req.Search),
		Limit:  clamp(req.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search tags error: %w", err)
	}

	refs := make([]models.TagRef, 0, len(tags))
	for _, t := range tags {
		refs = append(refs, models.TagRef{ID: t.ID, Name: t.Name})
	}

	return refs, nil
}

func clamp(limit *int) int {
	switch {
	case limit == nil:
		return DefaultLimit
	case *limit < 1:
		return 1
	case *limit > MaxLimit:
		return MaxLimit
	default:
		return *limit
	}
}
