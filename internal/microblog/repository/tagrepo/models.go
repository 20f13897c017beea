package tagrepo

import (
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
)

var (
	ErrNotFound      = errors.New("tag not found")
	ErrAlreadyExists = errors.New("tag already exists")
)

var Columns = []string{"id", "name", "created_at"}

type SearchRequest struct {
	Search string
	Limit  int
}

func SearchQuery(sb squirrel.StatementBuilderType, req SearchRequest) squirrel.SelectBuilder {
	q := sb.Select(Columns...).From("tags")

	if req.Search != "" {
		q = q.Where(squirrel.Expr(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(req.Search)))
	}

	q = q.OrderBy("name ASC")

	if req.Limit > 0 {
		q = q.Limit(uint64(req.Limit))
	}

	return q
}

func ByNameQuery(sb squirrel.StatementBuilderType, name string) squirrel.SelectBuilder {
	return sb.Select(Columns...).From("tags").
		Where(squirrel.Eq{"LOWER(name)": strings.ToLower(name)})
}

func ByIDsQuery(sb squirrel.StatementBuilderType, ids []string) squirrel.SelectBuilder {
	return sb.Select(Columns...).From("tags").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("name ASC")
}

func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

	return "%" + r.Replace(strings.ToLower(search)) + "%"
}
