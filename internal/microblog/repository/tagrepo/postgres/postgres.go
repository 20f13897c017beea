package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/tagrepo"
	"github.com/Leopold1975/microblog/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TagsPostgresRepo struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) TagsPostgresRepo {
	return TagsPostgresRepo{
		db: db,
	}
}

func (tr TagsPostgresRepo) CreateTag(ctx context.Context, t models.Tag) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("tags").
		Columns(tagrepo.Columns...).
		Values(t.ID, t.Name, t.CreatedAt).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tr.db.Exec(ctx, query, args...); err != nil {
		if pgtools.IsUniqueViolation(err) {
			return tagrepo.ErrAlreadyExists
		}

		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (tr TagsPostgresRepo) GetTagByName(ctx context.Context, name string) (models.Tag, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := tagrepo.ByNameQuery(psql, name).ToSql()
	if err != nil {
		return models.Tag{}, fmt.Errorf("to sql error: %w", err)
	}

	var t models.Tag

	if err := tr.db.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tag{}, tagrepo.ErrNotFound
		}

		return models.Tag{}, fmt.Errorf("scan error: %w", err)
	}

	return t, nil
}

func (tr TagsPostgresRepo) GetTagsByIDs(ctx context.Context, ids []string) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	return tr.query(ctx, tagrepo.ByIDsQuery(psql, ids), len(ids))
}

func (tr TagsPostgresRepo) SearchTags(ctx context.Context, req tagrepo.SearchRequest) ([]models.Tag, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	return tr.query(ctx, tagrepo.SearchQuery(psql, req), req.Limit)
}

func (tr TagsPostgresRepo) query(ctx context.Context, sb squirrel.SelectBuilder, capacity int) ([]models.Tag, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tags := make([]models.Tag, 0, capacity)

	for rows.Next() {
		var t models.Tag

		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tags, nil
}
