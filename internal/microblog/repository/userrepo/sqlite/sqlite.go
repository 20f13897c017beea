package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/userrepo"
	"github.com/Leopold1975/microblog/internal/pkg/sqlitetools"
	"github.com/Masterminds/squirrel"
)

type UsersSQLiteRepo struct {
	db *sql.DB
}

func New(db *sql.DB) UsersSQLiteRepo {
	return UsersSQLiteRepo{
		db: db,
	}
}

func (ur UsersSQLiteRepo) CreateUser(ctx context.Context, u models.User) error {
	query, args, err := squirrel.Insert("users").
		Columns(userrepo.Columns...).
		Values(u.ID, u.Name, u.PasswordHash, u.GoogleID, u.Color, sqlitetools.ToUnix(u.CreatedAt)).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = ur.db.ExecContext(ctx, query, args...); err != nil {
		if sqlitetools.IsUniqueViolation(err) {
			return userrepo.ErrAlreadyExists
		}

		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (ur UsersSQLiteRepo) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return ur.getUser(ctx, squirrel.Eq{"id": id})
}

func (ur UsersSQLiteRepo) GetUserByName(ctx context.Context, name string) (models.User, error) {
	return ur.getUser(ctx, squirrel.Eq{"name": name})
}

func (ur UsersSQLiteRepo) GetUserByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	return ur.getUser(ctx, squirrel.Eq{"google_id": googleID})
}

func (ur UsersSQLiteRepo) getUser(ctx context.Context, where squirrel.Eq) (models.User, error) {
	query, args, err := squirrel.Select(userrepo.Columns...).
		From("users").
		Where(where).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	u, err := scanUser(ur.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, userrepo.ErrNotFound
		}

		return models.User{}, fmt.Errorf("scan error: %w", err)
	}

	return u, nil
}

func (ur UsersSQLiteRepo) SearchUsers(ctx context.Context, req userrepo.SearchRequest) ([]models.User, error) {
	query, args, err := userrepo.SearchQuery(squirrel.StatementBuilder, req).ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := ur.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0, req.Limit)

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (models.User, error) {
	var (
		u         models.User
		createdAt int64
	)

	if err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.GoogleID, &u.Color, &createdAt); err != nil {
		return models.User{}, err //nolint:wrapcheck
	}

	u.CreatedAt = sqlitetools.FromUnix(createdAt)

	return u, nil
}
