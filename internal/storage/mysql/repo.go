package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"reviewsync/internal/storage/sqlstore"
)

var Dialect = sqlstore.Dialect{
	Name:                "mysql",
	Schema:              schema,
	Drop:                dropSQL,
	UpsertBusiness:      upsertBusinessSQL,
	InsertReviewsPrefix: insertReviewsPrefix,
	InsertReviewsSuffix: insertReviewsOnDup,
}

// New wraps an already opened MySQL handle.
func New(db *sql.DB) *sqlstore.Repo { return sqlstore.New(db, Dialect) }

// Open connects, pings and migrates. The DSN should carry parseTime=true&loc=UTC.
func Open(ctx context.Context, dsn string) (*sqlstore.Repo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}

	repo := New(db)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}
