package sqlitetools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // sqlite driver
)

// pragmas are part of the DSN so that every pooled connection gets them,
// including ones opened after the previous connection expired.
var pragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// DSN builds a modernc sqlite data source name for path with the pragmas set.
func DSN(path string) string {
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}

	return "file:" + path + "?" + strings.Join(params, "&")
}

// Open opens the database file with the pragmas and applies migrations.
func Open(ctx context.Context, cfg config.DB) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(cfg.SQLite.Path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite error: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping sqlite error: %w", err)
	}

	if err := migrations.Apply(ctx, db, goose.DialectSQLite3, cfg.Version, cfg.Reload); err != nil {
		db.Close()

		return nil, fmt.Errorf("apply migrations error: %w", err)
	}

	return db, nil
}

func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Timestamps are stored as unix microseconds to match postgres precision.
func ToUnix(t time.Time) int64 {
	return t.UnixMicro()
}

func FromUnix(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

// CommitOrRollback mirrors pgtools.CommitOrRollback for database/sql transactions.
func CommitOrRollback(tx *sql.Tx, err error, where string) error {
	if err == nil {
		if errT := tx.Commit(); errT != nil {
			err = fmt.Errorf("commit error: %w", errT)
		}
	} else {
		if errT := tx.Rollback(); errT != nil {
			err = fmt.Errorf("%s error: %w rollback error: %w", where, err, errT)
		} else {
			err = fmt.Errorf("%s error: %w", where, err)
		}
	}

	return err
}
