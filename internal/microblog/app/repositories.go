package app

import (
	"context"
	"fmt"

	postpg "github.com/Leopold1975/microblog/internal/microblog/repository/postrepo/postgres"
	postsqlite "github.com/Leopold1975/microblog/internal/microblog/repository/postrepo/sqlite"
	tagpg "github.com/Leopold1975/microblog/internal/microblog/repository/tagrepo/postgres"
	tagsqlite "github.com/Leopold1975/microblog/internal/microblog/repository/tagrepo/sqlite"
	userpg "github.com/Leopold1975/microblog/internal/microblog/repository/userrepo/postgres"
	usersqlite "github.com/Leopold1975/microblog/internal/microblog/repository/userrepo/sqlite"
	"github.com/Leopold1975/microblog/internal/microblog/services/authservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/postservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/tagservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/userservice"
	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/internal/pkg/pgtools"
	"github.com/Leopold1975/microblog/internal/pkg/sqlitetools"
)

type UserRepository interface {
	authservice.Repository
	userservice.Repository
}

type TagRepository interface {
	postservice.TagRepository
	tagservice.Repository
}

type Repositories struct {
	Users UserRepository
	Tags  TagRepository
	Posts postservice.Repository
	Close func()
}

// NewRepositories connects to the configured database and applies migrations.
func NewRepositories(ctx context.Context, cfg config.DB) (Repositories, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pgtools.Connect(ctx, pgtools.ConnString(cfg.Postgres))
		if err != nil {
			return Repositories{}, fmt.Errorf("postgres connect error: %w", err)
		}

		if err := pgtools.ApplyMigration(ctx, cfg); err != nil {
			pool.Close()

			return Repositories{}, fmt.Errorf("postgres migration error: %w", err)
		}

		return Repositories{
			Users: userpg.New(pool),
			Tags:  tagpg.New(pool),
			Posts: postpg.New(pool),
			Close: pool.Close,
		}, nil
	case config.DriverSQLite:
		db, err := sqlitetools.Open(ctx, cfg)
		if err != nil {
			return Repositories{}, fmt.Errorf("sqlite open error: %w", err)
		}

		return Repositories{
			Users: usersqlite.New(db),
			Tags:  tagsqlite.New(db),
			Posts: postsqlite.New(db),
			Close: func() { db.Close() },
		}, nil
	default:
		return Repositories{}, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}
