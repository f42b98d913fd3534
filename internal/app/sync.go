package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"reviewsync/internal/adapters/observability"
	"reviewsync/internal/domain"
)

// SyncOptions describe one fetch run.
type SyncOptions struct {
	ReviewsOnly  bool
	StatsOnly    bool
	ForceRefresh bool
	// Pages bounds review pagination. Statistics are a single page and ignore it.
	Pages domain.PageRange
	// DiscardPartial skips the sink for businesses whose fetch did not fully succeed.
	DiscardPartial bool
}

func (o SyncOptions) Validate() error {
	if o.ReviewsOnly && o.StatsOnly {
		return errors.New("reviews-only and stats-only are mutually exclusive")
	}
	if o.Pages.Start < 0 || o.Pages.End < 0 {
		return errors.New("page numbers must be positive")
	}
	if o.Pages.End > 0 && o.Pages.End < o.Pages.First() {
		return fmt.Errorf("end page %d is before start page %d", o.Pages.End, o.Pages.First())
	}
	return nil
}

// SyncService runs the fetch → paginate → dedup → persist pipeline for a list of businesses.
type SyncService struct {
	fetcher domain.PageFetcher
	store   domain.Store // optional; dedup is disabled without it
	sink    domain.Sink
}

func NewSyncService(f domain.PageFetcher, store domain.Store, sink domain.Sink) *SyncService {
	return &SyncService{fetcher: f, store: store, sink: sink}
}

// Run processes businesses one after another and reports one outcome per business,
// in input order. A failing business never stops the ones after it.
func (s *SyncService) Run(ctx context.Context, ids []domain.BusinessID, opts SyncOptions) ([]domain.BusinessOutcome, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	pager := NewPaginator(s.fetcher, NewDedupOracle(s.store, opts.ForceRefresh))

	outs := make([]domain.BusinessOutcome, 0, len(ids))
	done := make(map[domain.BusinessID]bool, len(ids))
	for _, id := range ids {
		if id == "" || done[id] {
			continue
		}
		done[id] = true
		outs = append(outs, s.syncOne(ctx, pager, id, opts))
	}
	return outs, nil
}

func (s *SyncService) syncOne(ctx context.Context, pager *Paginator, id domain.BusinessID, opts SyncOptions) domain.BusinessOutcome {
	out := domain.BusinessOutcome{Business: id}
	lg := log.With().Str("business", string(id)).Logger()
	lg.Info().Msg("sync started")

	if !opts.StatsOnly {
		r := pager.Paginate(ctx, id, domain.ResourceReviews, opts.Pages, opts.ForceRefresh)
		out.Reviews = &r
	}
	if !opts.ReviewsOnly {
		r := pager.Paginate(ctx, id, domain.ResourceStats, domain.PageRange{Start: 1}, opts.ForceRefresh)
		out.Stats = &r
	}

	for _, r := range []*domain.ResourceResult{out.Reviews, out.Stats} {
		if r != nil && r.Profile != nil {
			out.Profile = r.Profile
			break
		}
	}
	if out.Profile == nil && (len(out.ReviewList()) > 0 || len(out.StatsList()) > 0) {
		pb := domain.PlaceholderBusiness(id)
		out.Profile = &pb
	}
	out.Status, out.Err = combine(out.Reviews, out.Stats)

	switch {
	case out.Status == domain.StatusFailure:
		// nothing was fetched
	case out.Status == domain.StatusPartial && opts.DiscardPartial:
		lg.Warn().Err(out.Err).Msg("partial result discarded")
	case s.sink != nil:
		if err := s.sink.Write(ctx, out); err != nil {
			var pe *domain.PersistenceError
			if !errors.As(err, &pe) {
				err = &domain.PersistenceError{Business: id, Op: "write", Err: err}
			}
			out.Status = domain.StatusFailure
			out.Err = err
		} else {
			out.Persisted = true
		}
	}

	observability.ObserveOutcome(string(out.Status))
	ev := lg.Info()
	if out.Status != domain.StatusSuccess {
		ev = lg.Warn().Err(out.Err).Str("cause", observability.LabelErr(out.Err))
	}
	ev.Str("status", string(out.Status)).
		Int("reviews", len(out.ReviewList())).
		Int("stats", len(out.StatsList())).
		Int("warnings", len(out.Warnings())).
		Bool("persisted", out.Persisted).
		Msg("sync finished")
	return out
}

// combine folds per-resource statuses: all success is success, all failure is failure,
// anything else is partial.
func combine(results ...*domain.ResourceResult) (domain.Status, error) {
	var errs []error
	ok, failed, n := 0, 0, 0
	for _, r := range results {
		if r == nil {
			continue
		}
		n++
		switch r.Status {
		case domain.StatusSuccess:
			ok++
		case domain.StatusFailure:
			failed++
		}
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Kind, r.Err))
		}
	}
	err := errors.Join(errs...)
	switch {
	case ok == n:
		return domain.StatusSuccess, nil
	case failed == n:
		return domain.StatusFailure, err
	default:
		return domain.StatusPartial, err
	}
}
