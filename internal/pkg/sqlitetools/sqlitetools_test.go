package sqlitetools_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/internal/pkg/sqlitetools"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	require.Equal(t,
		"file:/tmp/db.sqlite?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"+
			"&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		sqlitetools.DSN("/tmp/db.sqlite"))
}

func TestPragmasSurviveConnectionRecycling(t *testing.T) {
	ctx := context.Background()

	db, err := sqlitetools.Open(ctx, config.DB{ //nolint:exhaustruct
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteDB{Path: filepath.Join(t.TempDir(), "pragmas.sqlite")},
	})
	require.NoError(t, err)

	defer db.Close()

	db.SetConnMaxLifetime(time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	var foreignKeys, busyTimeout int

	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
	require.Equal(t, 1, foreignKeys)

	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
	require.Equal(t, 5000, busyTimeout)

	time.Sleep(20 * time.Millisecond)

	_, err = db.ExecContext(ctx,
		"INSERT INTO posts (id, content, author_id, created_at) VALUES ('p1', 'orphan', 'no-such-user', 0)")
	require.Error(t, err)
}

func TestDeletingUserCascades(t *testing.T) {
	ctx := context.Background()

	db, err := sqlitetools.Open(ctx, config.DB{ //nolint:exhaustruct
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteDB{Path: filepath.Join(t.TempDir(), "cascade.sqlite")},
	})
	require.NoError(t, err)

	defer db.Close()

	db.SetConnMaxLifetime(time.Millisecond)

	stmts := []string{
		"INSERT INTO users (id, name, created_at) VALUES ('u1', 'alice', 0)",
		"INSERT INTO tags (id, name, created_at) VALUES ('t1', 'go', 0)",
		"INSERT INTO posts (id, content, author_id, created_at) VALUES ('p1', 'hello', 'u1', 0)",
		"INSERT INTO posts_tags (post_id, tag_id) VALUES ('p1', 't1')",
	}
	for _, stmt := range stmts {
		time.Sleep(5 * time.Millisecond)

		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	time.Sleep(5 * time.Millisecond)

	_, err = db.ExecContext(ctx, "DELETE FROM users WHERE id = 'u1'")
	require.NoError(t, err)

	var posts, links, tags int

	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&posts))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts_tags").Scan(&links))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tags").Scan(&tags))
	require.Zero(t, posts)
	require.Zero(t, links)
	require.Equal(t, 1, tags)
}
