package postservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/feedcache"
	"github.com/Leopold1975/microblog/internal/microblog/repository/postrepo"
	"github.com/google/uuid"
)

// ClampLimit applies the feed page size bounds. Nil means the default.
func ClampLimit(limit *int) int {
	switch {
	case limit == nil:
		return DefaultLimit
	case *limit < MinLimit:
		return MinLimit
	case *limit > MaxLimit:
		return MaxLimit
	default:
		return *limit
	}
}

func (ps *PostService) ListPosts(ctx context.Context, req ListPostsRequest) (models.PostsPage, error) {
	if err := ps.validate.Validate(req); err != nil {
		return models.PostsPage{}, err //nolint:wrapcheck
	}

	q := feedcache.PageQuery{
		AuthorIDs: req.AuthorIDs,
		TagIDs:    req.TagIDs,
		Cursor:    req.Cursor,
		Sort:      models.SortDesc,
		Limit:     ClampLimit(req.Limit),
	}

	if req.Sort == string(models.SortAsc) {
		q.Sort = models.SortAsc
	}

	key, err := ps.cache.PageKey(ctx, feedcache.Key(q))
	if err != nil {
		ps.lg.Errorf("feed cache key error: %s", err.Error())

		return ps.paginate(ctx, q)
	}

	page, err := ps.cache.GetPage(ctx, key)
	if err == nil {
		ps.lg.Debugf("feed cache hit %s", key)

		return page, nil
	} else if !errors.Is(err, feedcache.ErrMiss) {
		ps.lg.Errorf("get feed cache error: %s", err.Error())
	}

	page, err = ps.paginate(ctx, q)
	if err != nil {
		return models.PostsPage{}, err
	}

	if err := ps.cache.SetPage(ctx, key, page); err != nil {
		ps.lg.Errorf("set feed cache error: %s", err.Error())
	}

	return page, nil
}

// paginate fetches one row past the page to know whether a next page exists.
// The cursor is the id of the last post on the previous page; an unknown
// cursor starts from the top.
func (ps *PostService) paginate(ctx context.Context, q feedcache.PageQuery) (models.PostsPage, error) {
	req := postrepo.ListRequest{
		AuthorIDs: q.AuthorIDs,
		TagIDs:    q.TagIDs,
		Sort:      q.Sort,
		Limit:     q.Limit + 1,
	}

	if q.Cursor != "" {
		cursor, err := ps.cursorTime(ctx, q.Cursor)
		if err != nil {
			return models.PostsPage{}, err
		}

		req.Cursor = cursor
	}

	posts, err := ps.postRepo.ListPosts(ctx, req)
	if err != nil {
		return models.PostsPage{}, fmt.Errorf("list posts error: %w", err)
	}

	var page models.PostsPage

	if len(posts) > q.Limit {
		posts = posts[:q.Limit]
		page.NextCursor = posts[len(posts)-1].ID
	}

	page.Items = make([]models.PostResponse, 0, len(posts))
	for _, p := range posts {
		page.Items = append(page.Items, p.Response())
	}

	return page, nil
}

func (ps *PostService) cursorTime(ctx context.Context, cursor string) (*time.Time, error) {
	if _, err := uuid.Parse(cursor); err != nil {
		return nil, nil //nolint:nilnil
	}

	t, err := ps.postRepo.GetCreatedAt(ctx, cursor)
	if errors.Is(err, postrepo.ErrNotFound) {
		return nil, nil //nolint:nilnil
	} else if err != nil {
		return nil, fmt.Errorf("get cursor post error: %w", err)
	}

	return &t, nil
}

// BackgroundWarmup keeps the default first page of the feed cached.
func (ps *PostService) BackgroundWarmup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	ps.warmup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			ps.warmup(ctx)
		}
	}
}

func (ps *PostService) warmup(ctx context.Context) {
	q := feedcache.PageQuery{Sort: models.SortDesc, Limit: DefaultLimit} //nolint:exhaustruct

	key, err := ps.cache.PageKey(ctx, feedcache.Key(q))
	if err != nil {
		ps.lg.Errorf("warmup feed cache key error: %s", err.Error())

		return
	}

	page, err := ps.paginate(ctx, q)
	if err != nil {
		ps.lg.Errorf("warmup feed error: %s", err.Error())

		return
	}

	if err := ps.cache.SetPage(ctx, key, page); err != nil {
		ps.lg.Errorf("warmup feed cache error: %s", err.Error())
	}
}
