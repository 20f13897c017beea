package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/tagrepo"
	"github.com/Leopold1975/microblog/internal/pkg/sqlitetools"
	"github.com/Masterminds/squirrel"
)

type TagsSQLiteRepo struct {
	db *sql.DB
}

func New(db *sql.DB) TagsSQLiteRepo {
	return TagsSQLiteRepo{
		db: db,
	}
}

func (tr TagsSQLiteRepo) CreateTag(ctx context.Context, t models.Tag) error {
	query, args, err := squirrel.Insert("tags").
		Columns(tagrepo.Columns...).
		Values(t.ID, t.Name, sqlitetools.ToUnix(t.CreatedAt)).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tr.db.ExecContext(ctx, query, args...); err != nil {
		if sqlitetools.IsUniqueViolation(err) {
			return tagrepo.ErrAlreadyExists
		}

		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (tr TagsSQLiteRepo) GetTagByName(ctx context.Context, name string) (models.Tag, error) {
	query, args, err := tagrepo.ByNameQuery(squirrel.StatementBuilder, name).ToSql()
	if err != nil {
		return models.Tag{}, fmt.Errorf("to sql error: %w", err)
	}

	t, err := scanTag(tr.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Tag{}, tagrepo.ErrNotFound
		}

		return models.Tag{}, fmt.Errorf("scan error: %w", err)
	}

	return t, nil
}

func (tr TagsSQLiteRepo) GetTagsByIDs(ctx context.Context, ids []string) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}

	return tr.query(ctx, tagrepo.ByIDsQuery(squirrel.StatementBuilder, ids), len(ids))
}

func (tr TagsSQLiteRepo) SearchTags(ctx context.Context, req tagrepo.SearchRequest) ([]models.Tag, error) {
	return tr.query(ctx, tagrepo.SearchQuery(squirrel.StatementBuilder, req), req.Limit)
}

func (tr TagsSQLiteRepo) query(ctx context.Context, sb squirrel.SelectBuilder, capacity int) ([]models.Tag, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tags := make([]models.Tag, 0, capacity)

	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tags, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTag(row scanner) (models.Tag, error) {
	var (
		t         models.Tag
		createdAt int64
	)

	if err := row.Scan(&t.ID, &t.Name, &createdAt); err != nil {
		return models.Tag{}, err //nolint:wrapcheck
	}

	t.CreatedAt = sqlitetools.FromUnix(createdAt)

	return t, nil
}
