package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"reviewsync/internal/adapters/observability"
	"reviewsync/internal/domain"
)

// MaxConsecutiveSchemaErrors bounds how many undecodable pages in a row are skipped
// before a resource is given up on.
const MaxConsecutiveSchemaErrors = 3

// Paginator walks one resource's page sequence for a business.
type Paginator struct {
	fetcher domain.PageFetcher
	oracle  *DedupOracle
}

func NewPaginator(f domain.PageFetcher, o *DedupOracle) *Paginator {
	if o == nil {
		o = NewDedupOracle(nil, false)
	}
	return &Paginator{fetcher: f, oracle: o}
}

// Paginate fetches pages starting at rng.First() until the data runs out, the range
// ends, a page of already stored reviews is seen, or a non-skippable error occurs.
//
// The "page fully known" stop assumes the API lists reviews newest first; it is a
// best-effort shortcut and force refresh bypasses it.
func (p *Paginator) Paginate(ctx context.Context, b domain.BusinessID, kind domain.ResourceKind, rng domain.PageRange, force bool) domain.ResourceResult {
	res := domain.ResourceResult{Kind: kind}
	lg := log.With().Str("business", string(b)).Str("resource", string(kind)).Logger()

	var known map[int64]struct{}
	if kind == domain.ResourceReviews && !force {
		ids, err := p.oracle.KnownIDs(ctx, b)
		if err != nil {
			res.Status = domain.StatusFailure
			res.StopReason = domain.StopError
			res.Err = &domain.PersistenceError{Business: b, Op: "known_ids", Err: err}
			lg.Error().Err(err).Msg("cannot load stored review ids")
			return res
		}
		known = ids
	}

	seen := make(map[int64]struct{})
	schemaRun := 0
	total := 0

	for page := rng.First(); ; page++ {
		if rng.Exceeds(page) {
			res.StopReason = domain.StopPageBound
			break
		}
		if total > 0 && page > total {
			res.StopReason = domain.StopEndOfData
			break
		}
		if err := ctx.Err(); err != nil {
			res.Err = err
			res.StopReason = domain.StopError
			break
		}

		pg, err := p.fetcher.FetchPage(ctx, b, kind, page)
		if err != nil {
			var se *domain.SchemaError
			if errors.As(err, &se) {
				observability.ObservePage(string(kind), "schema_error")
				if kind == domain.ResourceStats {
					// statistics have exactly one page, so there is nothing to skip to
					lg.Error().Err(err).Int("page", page).Msg("undecodable statistics")
					res.Err = err
					res.StopReason = domain.StopError
					break
				}
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s page %d skipped: %v", kind, page, se.Err))
				lg.Warn().Err(err).Int("page", page).Msg("undecodable page skipped")
				schemaRun++
				if schemaRun > MaxConsecutiveSchemaErrors {
					res.Err = fmt.Errorf("%d consecutive undecodable pages: %w", schemaRun, err)
					res.StopReason = domain.StopSchemaLimit
					break
				}
				continue
			}
			observability.ObservePage(string(kind), "error")
			lg.Error().Err(err).Int("page", page).Msg("pagination aborted")
			res.Err = err
			res.StopReason = domain.StopError
			break
		}
		observability.ObservePage(string(kind), "ok")
		schemaRun = 0
		res.Pages = append(res.Pages, page)
		if pg.TotalPages > 0 {
			total = pg.TotalPages
		}
		if res.Profile == nil && pg.Profile != nil {
			res.Profile = pg.Profile
		}

		fresh, stored := 0, 0
		for _, r := range pg.Reviews {
			if _, ok := known[r.ID]; ok {
				stored++
				continue
			}
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			res.Reviews = append(res.Reviews, r)
			fresh++
		}
		res.Stats = append(res.Stats, pg.Stats...)
		lg.Debug().Int("page", page).Int("fresh", fresh).Int("known", stored).Bool("has_more", pg.HasMore).Msg("page fetched")

		if len(pg.Reviews) > 0 && stored == len(pg.Reviews) {
			res.StopReason = domain.StopAllKnown
			break
		}
		if !pg.HasMore || kind == domain.ResourceStats {
			res.StopReason = domain.StopEndOfData
			break
		}
	}

	res.Status = resultStatus(res)
	observability.ObserveRetained(string(kind), res.Records())
	return res
}

func resultStatus(res domain.ResourceResult) domain.Status {
	switch {
	case res.Err == nil:
		return domain.StatusSuccess
	case len(res.Pages) == 0:
		return domain.StatusFailure
	default:
		return domain.StatusPartial
	}
}
