package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"reviewsync/internal/domain"
)

// ---- fetcher ----

type pageKey struct {
	b    domain.BusinessID
	kind domain.ResourceKind
	page int
}

type pageResp struct {
	pg  domain.Page
	err error
}

type fakeFetcher struct {
	pages map[pageKey]pageResp
	calls []pageKey
}

func newFakeFetcher() *fakeFetcher { return &fakeFetcher{pages: map[pageKey]pageResp{}} }

func (f *fakeFetcher) FetchPage(ctx context.Context, b domain.BusinessID, kind domain.ResourceKind, page int) (domain.Page, error) {
	k := pageKey{b, kind, page}
	f.calls = append(f.calls, k)
	r, ok := f.pages[k]
	if !ok {
		return domain.Page{}, &domain.HTTPError{URL: fmt.Sprint(k), Status: 404}
	}
	return r.pg, r.err
}

// reviews registers review pages for b; pages[i] holds the ids of page i+1.
func (f *fakeFetcher) reviews(b domain.BusinessID, pages ...[]int64) {
	for i, ids := range pages {
		n := i + 1
		pg := domain.Page{Number: n, HasMore: n < len(pages), TotalPages: len(pages)}
		for _, id := range ids {
			pg.Reviews = append(pg.Reviews, review(b, id))
		}
		if n == 1 {
			pg.Profile = &domain.Business{Slug: b, Name: "Profile " + string(b)}
		}
		f.pages[pageKey{b, domain.ResourceReviews, n}] = pageResp{pg: pg}
	}
}

func (f *fakeFetcher) stats(b domain.BusinessID, total int) {
	f.pages[pageKey{b, domain.ResourceStats, 1}] = pageResp{pg: domain.Page{
		Number:     1,
		TotalPages: 1,
		Stats:      []domain.StatsSnapshot{{Business: b, TotalReviews: total, AverageRating: 4.5, FetchedAt: time.Now().UTC()}},
	}}
}

func (f *fakeFetcher) fail(b domain.BusinessID, kind domain.ResourceKind, page int, err error) {
	f.pages[pageKey{b, kind, page}] = pageResp{err: err}
}

func (f *fakeFetcher) fetched(kind domain.ResourceKind) []int {
	var out []int
	for _, c := range f.calls {
		if c.kind == kind {
			out = append(out, c.page)
		}
	}
	return out
}

func review(b domain.BusinessID, id int64) domain.Review {
	return domain.Review{
		ID:        id,
		Business:  b,
		Rating:    int(id%5) + 1,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(id) * time.Hour),
	}
}

func schemaErr(b domain.BusinessID, page int) error {
	return &domain.SchemaError{Business: b, Kind: domain.ResourceReviews, Page: page, Err: errors.New("unexpected token")}
}

func exhausted() error {
	return &domain.ExhaustedRetriesError{Attempts: 3, Last: &domain.HTTPError{Status: 503}}
}

// ---- store ----

type fakeStore struct {
	mu         sync.Mutex
	businesses map[domain.BusinessID]domain.Business
	reviews    map[domain.BusinessID]map[int64]domain.Review
	stats      map[domain.BusinessID][]domain.StatsSnapshot
	knownCalls int
	failWrites error
	failKnown  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		businesses: map[domain.BusinessID]domain.Business{},
		reviews:    map[domain.BusinessID]map[int64]domain.Review{},
		stats:      map[domain.BusinessID][]domain.StatsSnapshot{},
	}
}

func (s *fakeStore) KnownReviewIDs(ctx context.Context, b domain.BusinessID) (map[int64]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.knownCalls++
	if s.failKnown != nil {
		return nil, s.failKnown
	}
	out := map[int64]struct{}{}
	for id := range s.reviews[b] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *fakeStore) UpsertBusiness(ctx context.Context, b domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	s.businesses[b.Slug] = b
	return nil
}

func (s *fakeStore) InsertReviews(ctx context.Context, b domain.BusinessID, rs []domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	if s.reviews[b] == nil {
		s.reviews[b] = map[int64]domain.Review{}
	}
	for _, r := range rs {
		s.reviews[b][r.ID] = r
	}
	return nil
}

func (s *fakeStore) InsertStatsSnapshot(ctx context.Context, b domain.BusinessID, st domain.StatsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	s.stats[b] = append(s.stats[b], st)
	return nil
}

func (s *fakeStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses = map[domain.BusinessID]domain.Business{}
	s.reviews = map[domain.BusinessID]map[int64]domain.Review{}
	s.stats = map[domain.BusinessID][]domain.StatsSnapshot{}
	return nil
}

func (s *fakeStore) reviewIDs(b domain.BusinessID) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int64
	for id := range s.reviews[b] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ---- cache ----

type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			c.dels = append(c.dels, k)
			delete(c.store, k)
		}
	}
	return nil
}

func ids(rs []domain.Review) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
