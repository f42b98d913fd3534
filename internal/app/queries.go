package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reviewsync/internal/domain"
)

const (
	DefaultReviewsLimit = 50
	DefaultReviewsSort  = "-created_at"
	DefaultListLimit    = 100
)

// cache keys shared by the read side and the sync-side invalidation
func businessKey(id domain.BusinessID) string { return fmt.Sprintf("business:%s", id) }
func businessesKey(limit int) string          { return fmt.Sprintf("%s%d", businessesPrefix, limit) }
func statsKey(id domain.BusinessID) string    { return fmt.Sprintf("stats:%s", id) }
func reviewsKey(id domain.BusinessID, limit int, sort string) string {
	return fmt.Sprintf("%s%d:%s", reviewsPrefix(id), limit, sort)
}
func reviewsPrefix(id domain.BusinessID) string { return fmt.Sprintf("reviews:%s:", id) }

const businessesPrefix = "businesses:"

type QueryService struct {
	repo     domain.Reader
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.Reader, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetBusiness(ctx context.Context, id domain.BusinessID) (domain.Business, error) {
	key := businessKey(id)
	var b domain.Business
	if s.cached(ctx, key, &b) {
		return b, nil
	}
	b, err := s.repo.GetBusiness(ctx, id)
	if err != nil {
		return domain.Business{}, err
	}
	s.store(ctx, key, b)
	return b, nil
}

func (s *QueryService) ListBusinesses(ctx context.Context, limit int) ([]domain.Business, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	key := businessesKey(limit)
	var out []domain.Business
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	bs, err := s.repo.ListBusinesses(ctx, limit)
	if err != nil {
		return nil, err
	}
	out = make([]domain.Business, len(bs))
	copy(out, bs)
	s.store(ctx, key, out)
	return out, nil
}

func (s *QueryService) ListReviews(ctx context.Context, id domain.BusinessID, pg domain.PageQuery) (domain.ReviewsPage, error) {
	if pg.Limit <= 0 {
		pg.Limit = DefaultReviewsLimit
	}
	if pg.Sort == "" {
		pg.Sort = DefaultReviewsSort
	}
	key := reviewsKey(id, pg.Limit, pg.Sort)
	var out domain.ReviewsPage
	if s.cached(ctx, key, &out) {
		return out, nil
	}

	rs, err := s.repo.ListReviews(ctx, id, pg)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array
	copyRS := deepCopyReviewsPage(rs)

	// optional size guard
	if b, _ := json.Marshal(copyRS); len(b) < 1_000_000 {
		s.store(ctx, key, copyRS)
	}
	return copyRS, nil
}

func (s *QueryService) LatestStats(ctx context.Context, id domain.BusinessID) (domain.StatsSnapshot, error) {
	key := statsKey(id)
	var st domain.StatsSnapshot
	if s.cached(ctx, key, &st) {
		return st, nil
	}
	st, err := s.repo.LatestStats(ctx, id)
	if err != nil {
		return domain.StatsSnapshot{}, err
	}
	s.store(ctx, key, st)
	return st, nil
}

func (s *QueryService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, _ := s.cache.Get(ctx, key, dst)
	return ok
}

func (s *QueryService) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := domain.ReviewsPage{}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Review, n)
		copy(out.Items, in.Items)
	}
	return out
}
