// Package migrations embeds the goose SQL migrations for every supported driver.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// Apply migrates db up to version (latest when version is 0). With reload set
// every migration is rolled back first.
func Apply(ctx context.Context, db *sql.DB, dialect goose.Dialect, version int, reload bool) error {
	var (
		fsys fs.FS
		err  error
	)

	switch dialect { //nolint:exhaustive
	case goose.DialectPostgres:
		fsys, err = fs.Sub(postgresFS, "postgres")
	case goose.DialectSQLite3:
		fsys, err = fs.Sub(sqliteFS, "sqlite")
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	if err != nil {
		return fmt.Errorf("sub fs error: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider error: %w", err)
	}

	if reload {
		if _, err := provider.DownTo(ctx, 0); err != nil {
			return fmt.Errorf("goose down error: %w", err)
		}
	}

	if version == 0 {
		_, err = provider.Up(ctx)
	} else {
		_, err = provider.UpTo(ctx, int64(version))
	}

	if err != nil {
		return fmt.Errorf("goose up error: %w", err)
	}

	return nil
}
