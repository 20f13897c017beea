package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/postrepo"
	"github.com/Leopold1975/microblog/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsPostgresRepo struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) PostsPostgresRepo {
	return PostsPostgresRepo{
		db: db,
	}
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func timeArg(t time.Time) interface{} {
	return t
}

func (pr PostsPostgresRepo) CreatePost(ctx context.Context, p models.Post) (err error) {
	tx, err := pr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	query, args, err := psql().Insert("posts").
		Columns("id", "content", "author_id", "created_at").
		Values(p.ID, p.Content, p.AuthorID, p.CreatedAt).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return insertTags(ctx, tx, p.ID, postrepo.TagIDs(p.Tags))
}

func (pr PostsPostgresRepo) UpdatePost(ctx context.Context, req postrepo.UpdateRequest) (err error) {
	tx, err := pr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update")
	}()

	query, args, err := psql().Update("posts").
		Set("content", squirrel.Expr("COALESCE(?, content)", req.Content)).
		Where(squirrel.Eq{"id": req.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return postrepo.ErrNotFound
	}

	if !req.ReplaceTags {
		return nil
	}

	query, args, err = psql().Delete("posts_tags").
		Where(squirrel.Eq{"post_id": req.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return insertTags(ctx, tx, req.ID, req.TagIDs)
}

func (pr PostsPostgresRepo) DeletePost(ctx context.Context, id string) error {
	query, args, err := psql().Delete("posts").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := pr.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return postrepo.ErrNotFound
	}

	return nil
}

func (pr PostsPostgresRepo) GetPost(ctx context.Context, id string) (models.Post, error) {
	posts, err := pr.query(ctx, postrepo.GetQuery(psql(), id), 1)
	if err != nil {
		return models.Post{}, err
	}

	if len(posts) == 0 {
		return models.Post{}, postrepo.ErrNotFound
	}

	return posts[0], nil
}

func (pr PostsPostgresRepo) GetCreatedAt(ctx context.Context, id string) (time.Time, error) {
	query, args, err := postrepo.CreatedAtQuery(psql(), id).ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("to sql error: %w", err)
	}

	var createdAt time.Time

	if err := pr.db.QueryRow(ctx, query, args...).Scan(&createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, postrepo.ErrNotFound
		}

		return time.Time{}, fmt.Errorf("scan error: %w", err)
	}

	return createdAt, nil
}

func (pr PostsPostgresRepo) ListPosts(ctx context.Context, req postrepo.ListRequest) ([]models.Post, error) {
	return pr.query(ctx, postrepo.ListQuery(psql(), req, timeArg), req.Limit)
}

func (pr PostsPostgresRepo) query(ctx context.Context, sb squirrel.SelectBuilder, capacity int) ([]models.Post, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := pr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0, capacity)

	for rows.Next() {
		var p models.Post

		err = rows.Scan(&p.ID, &p.Content, &p.AuthorID, &p.AuthorName, &p.AuthorColor, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(posts) == 0 {
		return posts, nil
	}

	tags, err := pr.loadTags(ctx, postrepo.PostIDs(posts))
	if err != nil {
		return nil, err
	}

	postrepo.AttachTags(posts, tags)

	return posts, nil
}

func (pr PostsPostgresRepo) loadTags(ctx context.Context, postIDs []string) (map[string][]models.Tag, error) {
	query, args, err := postrepo.TagsQuery(psql(), postIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := pr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags error: %w", err)
	}
	defer rows.Close()

	tags := make(map[string][]models.Tag, len(postIDs))

	for rows.Next() {
		var (
			postID string
			t      models.Tag
		)

		if err := rows.Scan(&postID, &t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag error: %w", err)
		}

		tags[postID] = append(tags[postID], t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tags, nil
}

func insertTags(ctx context.Context, tx pgx.Tx, postID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := postrepo.InsertTagsQuery(psql(), postID, ids).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert tags error: %w", err)
	}

	return nil
}
