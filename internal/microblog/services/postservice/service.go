package postservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/errs"
	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/postrepo"
	"github.com/Leopold1975/microblog/internal/pkg/validation"
	"github.com/Leopold1975/microblog/pkg/logger"
	"github.com/google/uuid"
)

var (
	ErrPostNotFound = errs.New(errs.ErrNotFound, "Post not found")
	ErrTagsNotFound = errs.New(errs.ErrNotFound, "Some tags not found")
	ErrNotAuthor    = errs.New(errs.ErrForbidden, "You can only modify your own posts")
)

type Repository interface {
	CreatePost(ctx context.Context, p models.Post) error
	UpdatePost(ctx context.Context, req postrepo.UpdateRequest) error
	DeletePost(ctx context.Context, id string) error
	GetPost(ctx context.Context, id string) (models.Post, error)
	GetCreatedAt(ctx context.Context, id string) (time.Time, error)
	ListPosts(ctx context.Context, req postrepo.ListRequest) ([]models.Post, error)
}

type TagRepository interface {
	GetTagsByIDs(ctx context.Context, ids []string) ([]models.Tag, error)
	GetTagByName(ctx context.Context, name string) (models.Tag, error)
	CreateTag(ctx context.Context, t models.Tag) error
}

type Cache interface {
	PageKey(ctx context.Context, query string) (string, error)
	GetPage(ctx context.Context, key string) (models.PostsPage, error)
	SetPage(ctx context.Context, key string, page models.PostsPage) error
	Invalidate(ctx context.Context) error
}

type PostService struct {
	postRepo Repository
	tagRepo  TagRepository
	cache    Cache
	validate *validation.Validator
	lg       logger.Logger
}

func New(postRepo Repository, tagRepo TagRepository, cache Cache, lg logger.Logger) *PostService {
	v := validation.New()
	v.RegisterStructRule(totalTagsRule, CreatePostRequest{}) //nolint:exhaustruct
	v.RegisterStructRule(totalTagsRule, UpdatePostRequest{}) //nolint:exhaustruct

	return &PostService{
		postRepo: postRepo,
		tagRepo:  tagRepo,
		cache:    cache,
		validate: v,
		lg:       lg,
	}
}

func (ps *PostService) CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (models.Post, error) {
	if err := ps.validate.Validate(req); err != nil {
		return models.Post{}, err //nolint:wrapcheck
	}

	tags, err := ps.resolveTags(ctx, req.TagIDs, req.TagNames)
	if err != nil {
		return models.Post{}, err
	}

	p := models.Post{
		ID:        uuid.NewString(),
		Content:   req.Content,
		AuthorID:  authorID,
		Tags:      tags,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := ps.postRepo.CreatePost(ctx, p); err != nil {
		return models.Post{}, fmt.Errorf("create post error: %w", err)
	}

	ps.invalidate(ctx)

	return ps.reload(ctx, p.ID)
}

func (ps *PostService) UpdatePost(ctx context.Context, userID, postID string, req UpdatePostRequest) (models.Post, error) {
	if err := ps.validate.Validate(req); err != nil {
		return models.Post{}, err //nolint:wrapcheck
	}

	if err := ps.checkOwner(ctx, userID, postID); err != nil {
		return models.Post{}, err
	}

	update := postrepo.UpdateRequest{
		ID:          postID,
		Content:     req.Content,
		ReplaceTags: req.replacesTags(),
	}

	if update.ReplaceTags {
		tags, err := ps.resolveTags(ctx, req.TagIDs, req.TagNames)
		if err != nil {
			return models.Post{}, err
		}

		update.TagIDs = postrepo.TagIDs(tags)
	}

	if err := ps.postRepo.UpdatePost(ctx, update); err != nil {
		if errors.Is(err, postrepo.ErrNotFound) {
			return models.Post{}, ErrPostNotFound
		}

		return models.Post{}, fmt.Errorf("update post error: %w", err)
	}

	ps.invalidate(ctx)

	return ps.reload(ctx, postID)
}

func (ps *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	if err := ps.checkOwner(ctx, userID, postID); err != nil {
		return err
	}

	if err := ps.postRepo.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, postrepo.ErrNotFound) {
			return ErrPostNotFound
		}

		return fmt.Errorf("delete post error: %w", err)
	}

	ps.invalidate(ctx)

	return nil
}

// checkOwner allows a mutation only when the post exists and userID wrote it.
func (ps *PostService) checkOwner(ctx context.Context, userID, postID string) error {
	if _, err := uuid.Parse(postID); err != nil {
		return ErrPostNotFound
	}

	p, err := ps.postRepo.GetPost(ctx, postID)
	if errors.Is(err, postrepo.ErrNotFound) {
		return ErrPostNotFound
	} else if err != nil {
		return fmt.Errorf("get post error: %w", err)
	}

	if p.AuthorID != userID {
		return ErrNotAuthor
	}

	return nil
}

func (ps *PostService) reload(ctx context.Context, id string) (models.Post, error) {
	p, err := ps.postRepo.GetPost(ctx, id)
	if errors.Is(err, postrepo.ErrNotFound) {
		return models.Post{}, ErrPostNotFound
	} else if err != nil {
		return models.Post{}, fmt.Errorf("get post error: %w", err)
	}

	return p, nil
}

func (ps *PostService) invalidate(ctx context.Context) {
	if err := ps.cache.Invalidate(ctx); err != nil {
		ps.lg.Errorf("invalidate feed cache error: %s", err.Error())
	}
}
