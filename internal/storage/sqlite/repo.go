package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"reviewsync/internal/storage/sqlstore"
)

var Dialect = sqlstore.Dialect{
	Name:                "sqlite",
	Schema:              schema,
	Drop:                dropSQL,
	UpsertBusiness:      upsertBusinessSQL,
	InsertReviewsPrefix: insertReviewsPrefix,
	InsertReviewsSuffix: insertReviewsOnConflict,
}

// New wraps an already opened SQLite handle.
func New(db *sql.DB) *sqlstore.Repo { return sqlstore.New(db, Dialect) }

// Open opens (creating if needed) the database file at path and migrates it.
func Open(ctx context.Context, path string) (*sqlstore.Repo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", pragma, err)
		}
	}

	repo := New(db)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}
