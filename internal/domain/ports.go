package domain

import "context"

// Store is the persistence collaborator the sync pipeline writes to.
type Store interface {
	// Dedup
	KnownReviewIDs(ctx context.Context, b BusinessID) (map[int64]struct{}, error)

	// Write paths
	UpsertBusiness(ctx context.Context, b Business) error
	InsertReviews(ctx context.Context, b BusinessID, rs []Review) error
	InsertStatsSnapshot(ctx context.Context, b BusinessID, s StatsSnapshot) error
	Reset(ctx context.Context) error
}

// Reader backs the read API.
type Reader interface {
	GetBusiness(ctx context.Context, b BusinessID) (Business, error)
	ListBusinesses(ctx context.Context, limit int) ([]Business, error)
	ListReviews(ctx context.Context, b BusinessID, pg PageQuery) (ReviewsPage, error)
	LatestStats(ctx context.Context, b BusinessID) (StatsSnapshot, error)
}

// Repository is what the SQL stores implement.
type Repository interface {
	Store
	Reader
	Close() error
}

type PageFetcher interface {
	FetchPage(ctx context.Context, b BusinessID, kind ResourceKind, page int) (Page, error)
}

// Sink receives the complete outcome for a business exactly once per run.
type Sink interface {
	Write(ctx context.Context, out BusinessOutcome) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	// DelPrefix removes every key starting with prefix.
	DelPrefix(ctx context.Context, prefix string) error
}

// Read models & queries
type PageQuery struct {
	Limit int
	Sort  string
}

type ReviewsPage struct {
	Items []Review `json:"items"`
}
