// Package feedcache caches rendered feed pages. Any post write invalidates
// every cached page at once by moving to a new generation.
package feedcache

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
)

var ErrMiss = errors.New("feed page not cached")

type PageQuery struct {
	AuthorIDs []string
	TagIDs    []string
	Cursor    string
	Sort      models.SortOrder
	Limit     int
}

// Key is a canonical representation of q; equal queries give equal keys.
func Key(q PageQuery) string {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("sort", string(q.Sort))

	if q.Cursor != "" {
		v.Set("cursor", q.Cursor)
	}

	if len(q.AuthorIDs) != 0 {
		v.Set("authorIds", strings.Join(q.AuthorIDs, ","))
	}

	if len(q.TagIDs) != 0 {
		v.Set("tagIds", strings.Join(q.TagIDs, ","))
	}

	return v.Encode()
}

type Noop struct{}

func (Noop) PageKey(_ context.Context, query string) (string, error) {
	return query, nil
}

func (Noop) GetPage(context.Context, string) (models.PostsPage, error) {
	return models.PostsPage{}, ErrMiss
}

func (Noop) SetPage(context.Context, string, models.PostsPage) error {
	return nil
}

func (Noop) Invalidate(context.Context) error {
	return nil
}
