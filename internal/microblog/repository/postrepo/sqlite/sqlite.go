package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/postrepo"
	"github.com/Leopold1975/microblog/internal/pkg/sqlitetools"
	"github.com/Masterminds/squirrel"
)

type PostsSQLiteRepo struct {
	db *sql.DB
}

func New(db *sql.DB) PostsSQLiteRepo {
	return PostsSQLiteRepo{
		db: db,
	}
}

func timeArg(t time.Time) interface{} {
	return sqlitetools.ToUnix(t)
}

func (pr PostsSQLiteRepo) CreatePost(ctx context.Context, p models.Post) (err error) {
	tx, err := pr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = sqlitetools.CommitOrRollback(tx, err, "create")
	}()

	query, args, err := squirrel.Insert("posts").
		Columns("id", "content", "author_id", "created_at").
		Values(p.ID, p.Content, p.AuthorID, sqlitetools.ToUnix(p.CreatedAt)).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return insertTags(ctx, tx, p.ID, postrepo.TagIDs(p.Tags))
}

func (pr PostsSQLiteRepo) UpdatePost(ctx context.Context, req postrepo.UpdateRequest) (err error) {
	tx, err := pr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = sqlitetools.CommitOrRollback(tx, err, "update")
	}()

	query, args, err := squirrel.Update("posts").
		Set("content", squirrel.Expr("COALESCE(?, content)", req.Content)).
		Where(squirrel.Eq{"id": req.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	if affected == 0 {
		return postrepo.ErrNotFound
	}

	if !req.ReplaceTags {
		return nil
	}

	query, args, err = squirrel.Delete("posts_tags").
		Where(squirrel.Eq{"post_id": req.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return insertTags(ctx, tx, req.ID, req.TagIDs)
}

func (pr PostsSQLiteRepo) DeletePost(ctx context.Context, id string) error {
	query, args, err := squirrel.Delete("posts").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	res, err := pr.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	if affected == 0 {
		return postrepo.ErrNotFound
	}

	return nil
}

func (pr PostsSQLiteRepo) GetPost(ctx context.Context, id string) (models.Post, error) {
	posts, err := pr.query(ctx, postrepo.GetQuery(squirrel.StatementBuilder, id), 1)
	if err != nil {
		return models.Post{}, err
	}

	if len(posts) == 0 {
		return models.Post{}, postrepo.ErrNotFound
	}

	return posts[0], nil
}

func (pr PostsSQLiteRepo) GetCreatedAt(ctx context.Context, id string) (time.Time, error) {
	query, args, err := postrepo.CreatedAtQuery(squirrel.StatementBuilder, id).ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("to sql error: %w", err)
	}

	var createdAt int64

	if err := pr.db.QueryRowContext(ctx, query, args...).Scan(&createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, postrepo.ErrNotFound
		}

		return time.Time{}, fmt.Errorf("scan error: %w", err)
	}

	return sqlitetools.FromUnix(createdAt), nil
}

func (pr PostsSQLiteRepo) ListPosts(ctx context.Context, req postrepo.ListRequest) ([]models.Post, error) {
	return pr.query(ctx, postrepo.ListQuery(squirrel.StatementBuilder, req, timeArg), req.Limit)
}

func (pr PostsSQLiteRepo) query(ctx context.Context, sb squirrel.SelectBuilder, capacity int) ([]models.Post, error) {
	posts, err := pr.scanPosts(ctx, sb, capacity)
	if err != nil {
		return nil, err
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

// scanPosts reads the post rows and releases the connection before tags are loaded.
func (pr PostsSQLiteRepo) scanPosts(ctx context.Context, sb squirrel.SelectBuilder, capacity int) ([]models.Post, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := pr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0, capacity)

	for rows.Next() {
		var (
			p         models.Post
			createdAt int64
		)

		err = rows.Scan(&p.ID, &p.Content, &p.AuthorID, &p.AuthorName, &p.AuthorColor, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		p.CreatedAt = sqlitetools.FromUnix(createdAt)
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return posts, nil
}

func (pr PostsSQLiteRepo) loadTags(ctx context.Context, postIDs []string) (map[string][]models.Tag, error) {
	query, args, err := postrepo.TagsQuery(squirrel.StatementBuilder, postIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := pr.db.QueryContext(ctx, query, args...)
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

func insertTags(ctx context.Context, tx *sql.Tx, postID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := postrepo.InsertTagsQuery(squirrel.StatementBuilder, postID, ids).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert tags error: %w", err)
	}

	return nil
}
