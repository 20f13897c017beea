package postrepo

import (
	"errors"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Masterminds/squirrel"
)

var ErrNotFound = errors.New("post not found")

// ListRequest is an already validated feed query. Limit is the number of rows
// to fetch, callers ask for one more than the page size to detect a next page.
type ListRequest struct {
	AuthorIDs []string
	TagIDs    []string
	Sort      models.SortOrder
	Cursor    *time.Time
	Limit     int
}

// UpdateRequest changes content when Content is set and replaces the tag set
// when ReplaceTags is true.
type UpdateRequest struct {
	ID          string
	Content     *string
	ReplaceTags bool
	TagIDs      []string
}

// TimeArg converts a timestamp into the driver's storage representation.
type TimeArg func(time.Time) interface{}

var postColumns = []string{"p.id", "p.content", "p.author_id", "u.name", "u.color", "p.created_at"}

func selectPosts(sb squirrel.StatementBuilderType) squirrel.SelectBuilder {
	return sb.Select(postColumns...).
		From("posts p").
		Join("users u ON u.id = p.author_id")
}

func GetQuery(sb squirrel.StatementBuilderType, id string) squirrel.SelectBuilder {
	return selectPosts(sb).Where(squirrel.Eq{"p.id": id})
}

func ListQuery(sb squirrel.StatementBuilderType, req ListRequest, ts TimeArg) squirrel.SelectBuilder {
	q := selectPosts(sb)

	if req.Cursor != nil {
		if req.Sort == models.SortAsc {
			q = q.Where(squirrel.Gt{"p.created_at": ts(*req.Cursor)})
		} else {
			q = q.Where(squirrel.Lt{"p.created_at": ts(*req.Cursor)})
		}
	}

	if len(req.AuthorIDs) != 0 {
		q = q.Where(squirrel.Eq{"p.author_id": req.AuthorIDs})
	}

	if len(req.TagIDs) != 0 {
		tagged := squirrel.Select("pt.post_id").
			From("posts_tags pt").
			Where(squirrel.Eq{"pt.tag_id": req.TagIDs})

		q = q.Where(squirrel.Expr("p.id IN (?)", tagged))
	}

	if req.Sort == models.SortAsc {
		q = q.OrderBy("p.created_at ASC")
	} else {
		q = q.OrderBy("p.created_at DESC")
	}

	if req.Limit > 0 {
		q = q.Limit(uint64(req.Limit))
	}

	return q
}

// TagsQuery loads (post_id, tag id, tag name) rows for a set of posts.
func TagsQuery(sb squirrel.StatementBuilderType, postIDs []string) squirrel.SelectBuilder {
	return sb.Select("pt.post_id", "t.id", "t.name").
		From("posts_tags pt").
		Join("tags t ON t.id = pt.tag_id").
		Where(squirrel.Eq{"pt.post_id": postIDs}).
		OrderBy("t.name ASC")
}

func CreatedAtQuery(sb squirrel.StatementBuilderType, id string) squirrel.SelectBuilder {
	return sb.Select("created_at").From("posts").Where(squirrel.Eq{"id": id})
}

func InsertTagsQuery(sb squirrel.StatementBuilderType, postID string, tagIDs []string) squirrel.InsertBuilder {
	q := sb.Insert("posts_tags").Columns("post_id", "tag_id")
	for _, id := range tagIDs {
		q = q.Values(postID, id)
	}

	return q
}

// AttachTags groups tag rows by post id onto the given posts preserving order.
func AttachTags(posts []models.Post, tags map[string][]models.Tag) {
	for i := range posts {
		posts[i].Tags = tags[posts[i].ID]
		if posts[i].Tags == nil {
			posts[i].Tags = []models.Tag{}
		}
	}
}

func PostIDs(posts []models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	return ids
}

func TagIDs(tags []models.Tag) []string {
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}

	return ids
}
