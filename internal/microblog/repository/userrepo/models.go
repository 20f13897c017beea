package userrepo

import (
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

var Columns = []string{"id", "name", "password_hash", "google_id", "color", "created_at"}

type SearchRequest struct {
	Search string
	Limit  int
}

func SearchQuery(sb squirrel.StatementBuilderType, req SearchRequest) squirrel.SelectBuilder {
	q := sb.Select(Columns...).From("users")

	if req.Search != "" {
		q = q.Where(squirrel.Expr(`LOWER(name) LIKE ? ESCAPE '\'`, LikePattern(req.Search)))
	}

	q = q.OrderBy("name ASC")

	if req.Limit > 0 {
		q = q.Limit(uint64(req.Limit))
	}

	return q
}

// LikePattern builds a lowercase substring pattern with LIKE wildcards escaped.
func LikePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

	return "%" + r.Replace(strings.ToLower(search)) + "%"
}
