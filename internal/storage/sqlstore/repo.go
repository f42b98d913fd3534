// Package sqlstore is the database/sql implementation of the sync store and the
// read API. Engine specific SQL lives in a Dialect supplied by the mysql and
// sqlite packages.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"reviewsync/internal/domain"
)

// Dialect carries the statements that differ between engines.
type Dialect struct {
	Name string
	// Schema is a ';'-separated DDL script; every statement must be idempotent.
	Schema string
	// Drop lists DROP statements, children first.
	Drop []string

	UpsertBusiness string
	// InsertReviewsPrefix is followed by the VALUES tuples and then InsertReviewsSuffix.
	InsertReviewsPrefix string
	InsertReviewsSuffix string
}

// reviewsPerStatement keeps bound parameters well under both engines' limits.
const reviewsPerStatement = 200

const reviewColumns = 18

type Repo struct {
	db *sql.DB
	d  Dialect
}

func New(db *sql.DB, d Dialect) *Repo { return &Repo{db: db, d: d} }

func (r *Repo) DB() *sql.DB { return r.db }

func (r *Repo) Close() error { return r.db.Close() }

// Migrate creates missing tables.
func (r *Repo) Migrate(ctx context.Context) error {
	for _, stmt := range statements(r.d.Schema) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migrate: %w", r.d.Name, err)
		}
	}
	return nil
}

// Reset drops every table and recreates the empty schema.
func (r *Repo) Reset(ctx context.Context) error {
	for _, stmt := range r.d.Drop {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s reset: %w", r.d.Name, err)
		}
	}
	return r.Migrate(ctx)
}

func statements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

/********** write side **********/

func (r *Repo) KnownReviewIDs(ctx context.Context, b domain.BusinessID) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, knownReviewIDsSQL, string(b))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (r *Repo) UpsertBusiness(ctx context.Context, b domain.Business) error {
	if b.Slug == "" {
		return errors.New("business slug is required")
	}
	name := b.Name
	if name == "" {
		name = string(b.Slug)
	}
	_, err := r.db.ExecContext(ctx, r.d.UpsertBusiness,
		string(b.Slug),
		name,
		valStr(b.IndustryName),
		valStr(b.IndustrySlug),
	)
	return err
}

// InsertReviews upserts by (business, review id) in one transaction.
func (r *Repo) InsertReviews(ctx context.Context, b domain.BusinessID, rs []domain.Review) (err error) {
	if len(rs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for start := 0; start < len(rs); start += reviewsPerStatement {
		end := start + reviewsPerStatement
		if end > len(rs) {
			end = len(rs)
		}
		chunk := rs[start:end]

		values := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*reviewColumns)
		for _, rv := range chunk {
			values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
			args = append(args,
				string(b),
				rv.ID,
				valStr(rv.UserID),
				valStr(rv.Author),
				valStr(rv.AuthorDisplayName),
				valStr(rv.AuthorID),
				valStr(rv.Title),
				rv.Rating,
				valStr(rv.Content),
				valTime(rv.CreatedAt),
				valStr(rv.Permalink),
				valBool(rv.Replied),
				valInt(rv.NPSRating),
				valStr(rv.Source),
				valBool(rv.IsReported),
				valTimePtr(rv.AuthorCreatedDate),
				valInt(rv.AuthorTotalReviews),
				valJSON(rv.RawJSON),
			)
		}
		stmt := r.d.InsertReviewsPrefix + strings.Join(values, ",") + r.d.InsertReviewsSuffix
		if _, err = tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertStatsSnapshot always adds a row; snapshots form a history.
func (r *Repo) InsertStatsSnapshot(ctx context.Context, b domain.BusinessID, s domain.StatsSnapshot) error {
	c := s.RatingCounts
	_, err := r.db.ExecContext(ctx, insertStatsSQL,
		string(b),
		valTime(s.FetchedAt),
		s.TotalReviews,
		s.AverageRating,
		s.TrustIndex,
		c[0], c[1], c[2], c[3], c[4],
		valInt64(s.IndustryID),
		valInt(s.IndustryRanking),
		valInt(s.ReviewCountTotal),
		valF64(s.AvgResponseTime),
		valF64(s.ResponseRate),
		valJSON(s.RawJSON),
	)
	return err
}

/********** read side **********/

func (r *Repo) GetBusiness(ctx context.Context, id domain.BusinessID) (domain.Business, error) {
	row := r.db.QueryRowContext(ctx, getBusinessSQL, string(id))
	b, err := scanBusiness(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Business{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repo) ListBusinesses(ctx context.Context, limit int) ([]domain.Business, error) {
	rows, err := r.db.QueryContext(ctx, listBusinessesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) ListReviews(ctx context.Context, id domain.BusinessID, pg domain.PageQuery) (domain.ReviewsPage, error) {
	order := "created_at DESC, review_id DESC"
	if pg.Sort == "created_at" {
		order = "created_at ASC, review_id ASC"
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL+order+"\nLIMIT ?", string(id), pg.Limit)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv                 domain.Review
			slug               string
			userID, author     sql.NullString
			display, authorID  sql.NullString
			title, content     sql.NullString
			permalink, source  sql.NullString
			nps, authorTotal   sql.NullInt64
			replied, reported  sql.NullInt64
			created, authorDob dbTime
			raw                sql.RawBytes
		)
		if err := rows.Scan(
			&slug,
			&rv.ID,
			&userID,
			&author,
			&display,
			&authorID,
			&title,
			&rv.Rating,
			&content,
			&created,
			&permalink,
			&replied,
			&nps,
			&source,
			&reported,
			&authorDob,
			&authorTotal,
			&raw,
		); err != nil {
			return domain.ReviewsPage{}, err
		}
		rv.Business = domain.BusinessID(slug)
		rv.UserID = strOf(userID)
		rv.Author = strOf(author)
		rv.AuthorDisplayName = strOf(display)
		rv.AuthorID = strOf(authorID)
		rv.Title = strOf(title)
		rv.Content = strOf(content)
		rv.CreatedAt = created.Time
		rv.Permalink = strOf(permalink)
		rv.Replied = replied.Valid && replied.Int64 != 0
		rv.NPSRating = intOf(nps)
		rv.Source = strOf(source)
		rv.IsReported = reported.Valid && reported.Int64 != 0
		rv.AuthorCreatedDate = authorDob.ptr()
		rv.AuthorTotalReviews = intOf(authorTotal)
		if len(raw) > 0 {
			rv.RawJSON = append([]byte(nil), raw...)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: out}, nil
}

func (r *Repo) LatestStats(ctx context.Context, id domain.BusinessID) (domain.StatsSnapshot, error) {
	var (
		s                  domain.StatsSnapshot
		slug               string
		fetched            dbTime
		industryID         sql.NullInt64
		ranking, monthly   sql.NullInt64
		respTime, respRate sql.NullFloat64
		raw                []byte
	)
	c := &s.RatingCounts
	err := r.db.QueryRowContext(ctx, latestStatsSQL, string(id)).Scan(
		&slug,
		&fetched,
		&s.TotalReviews,
		&s.AverageRating,
		&s.TrustIndex,
		&c[0], &c[1], &c[2], &c[3], &c[4],
		&industryID,
		&ranking,
		&monthly,
		&respTime,
		&respRate,
		&raw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StatsSnapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.StatsSnapshot{}, err
	}
	s.Business = domain.BusinessID(slug)
	s.FetchedAt = fetched.Time
	s.IndustryID = int64Of(industryID)
	s.IndustryRanking = intOf(ranking)
	s.ReviewCountTotal = intOf(monthly)
	s.AvgResponseTime = f64Of(respTime)
	s.ResponseRate = f64Of(respRate)
	s.RawJSON = raw
	return s, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanBusiness(sc scanner) (domain.Business, error) {
	var (
		b              domain.Business
		slug           string
		indName, indSl sql.NullString
	)
	if err := sc.Scan(&slug, &b.Name, &indName, &indSl); err != nil {
		return domain.Business{}, err
	}
	b.Slug = domain.BusinessID(slug)
	b.IndustryName = strOf(indName)
	b.IndustrySlug = strOf(indSl)
	return b, nil
}
