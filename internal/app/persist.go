package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"reviewsync/internal/domain"
)

// StoreSink writes a business outcome into the durable store and drops the read
// caches that could now be stale.
type StoreSink struct {
	store domain.Store
	cache domain.Cache
}

func NewStoreSink(store domain.Store, cache domain.Cache) *StoreSink {
	return &StoreSink{store: store, cache: cache}
}

// Write upserts the business first so review and stats rows always have a parent.
func (s *StoreSink) Write(ctx context.Context, out domain.BusinessOutcome) error {
	prof := domain.PlaceholderBusiness(out.Business)
	if out.Profile != nil {
		prof = *out.Profile
		prof.Slug = out.Business
	}
	if err := s.store.UpsertBusiness(ctx, prof); err != nil {
		return &domain.PersistenceError{Business: out.Business, Op: "business", Err: err}
	}

	if rs := out.ReviewList(); len(rs) > 0 {
		if err := s.store.InsertReviews(ctx, out.Business, rs); err != nil {
			return &domain.PersistenceError{Business: out.Business, Op: "reviews", Err: err}
		}
	}
	for _, st := range out.StatsList() {
		if err := s.store.InsertStatsSnapshot(ctx, out.Business, st); err != nil {
			return &domain.PersistenceError{Business: out.Business, Op: "stats", Err: err}
		}
	}

	if s.cache != nil {
		s.invalidate(ctx, out.Business)
	}
	return nil
}

// invalidate drops every read-side entry that can mention id, whatever limit or
// sort it was cached under.
func (s *StoreSink) invalidate(ctx context.Context, id domain.BusinessID) {
	for _, err := range []error{
		s.cache.Del(ctx, businessKey(id)),
		s.cache.Del(ctx, statsKey(id)),
		s.cache.DelPrefix(ctx, reviewsPrefix(id)),
		s.cache.DelPrefix(ctx, businessesPrefix),
	} {
		if err != nil {
			log.Warn().Err(err).Str("business", string(id)).Msg("read cache invalidation failed")
		}
	}
}
