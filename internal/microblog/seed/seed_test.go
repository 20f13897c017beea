package seed_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/repository/postrepo"
	postsqlite "github.com/Leopold1975/microblog/internal/microblog/repository/postrepo/sqlite"
	tagsqlite "github.com/Leopold1975/microblog/internal/microblog/repository/tagrepo/sqlite"
	usersqlite "github.com/Leopold1975/microblog/internal/microblog/repository/userrepo/sqlite"
	"github.com/Leopold1975/microblog/internal/microblog/seed"
	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/internal/pkg/sqlitetools"
	"github.com/Leopold1975/microblog/pkg/logger"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedRun(t *testing.T) {
	ctx := context.Background()

	db, err := sqlitetools.Open(ctx, config.DB{ //nolint:exhaustruct
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteDB{Path: filepath.Join(t.TempDir(), "seed.sqlite")},
	})
	require.NoError(t, err)

	defer db.Close()

	users, tags, posts := usersqlite.New(db), tagsqlite.New(db), postsqlite.New(db)
	s := seed.New(users, tags, posts, logger.NewNop())

	require.NoError(t, s.Run(ctx, 30))
	// second run reuses users and tags
	require.NoError(t, s.Run(ctx, 10))

	alice, err := users.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(*alice.PasswordHash), []byte(seed.DemoPassword)))

	list, err := posts.ListPosts(ctx, postrepo.ListRequest{Limit: 100}) //nolint:exhaustruct
	require.NoError(t, err)
	require.Len(t, list, 40)

	oldest := time.Now().Add(-91 * 24 * time.Hour)

	for _, p := range list {
		require.LessOrEqual(t, len(p.Tags), 4)
		require.True(t, p.CreatedAt.After(oldest))
		require.NotEmpty(t, p.AuthorName)
	}

	for _, name := range seed.DemoTags {
		require.LessOrEqual(t, len(name), 12)

		_, err := tags.GetTagByName(ctx, name)
		require.NoError(t, err)
	}
}
