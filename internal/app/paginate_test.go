package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"reviewsync/internal/app"
	"reviewsync/internal/domain"
)

func paginate(f *fakeFetcher, st *fakeStore, rng domain.PageRange, force bool) domain.ResourceResult {
	var store domain.Store
	if st != nil {
		store = st
	}
	p := app.NewPaginator(f, app.NewDedupOracle(store, force))
	return p.Paginate(context.Background(), "acme", domain.ResourceReviews, rng, force)
}

func TestPaginate_StopsOnFullyKnownPage(t *testing.T) {
	f := newFakeFetcher()
	f.reviews("acme", []int64{9, 8, 7}, []int64{6, 5, 4}, []int64{3, 2, 1})
	st := newFakeStore()
	_ = st.InsertReviews(context.Background(), "acme", []domain.Review{review("acme", 6), review("acme", 5), review("acme", 4)})

	res := paginate(f, st, domain.PageRange{}, false)

	if res.Status != domain.StatusSuccess || res.StopReason != domain.StopAllKnown {
		t.Fatalf("unexpected result: status=%s stop=%s err=%v", res.Status, res.StopReason, res.Err)
	}
	if got := ids(res.Reviews); !reflect.DeepEqual(got, []int64{9, 8, 7}) {
		t.Fatalf("expected only new reviews, got %v", got)
	}
	if got := f.fetched(domain.ResourceReviews); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("expected pages 1,2 to be fetched, got %v", got)
	}
}

func TestPaginate_PartiallyKnownPageContinues(t *testing.T) {
	f := newFakeFetcher()
	f.reviews("acme", []int64{9, 8, 7}, []int64{6, 5, 4})
	st := newFakeStore()
	_ = st.InsertReviews(context.Background(), "acme", []domain.Review{review("acme", 8)})

	res := paginate(f, st, domain.PageRange{}, false)

	if got := ids(res.Reviews); !reflect.DeepEqual(got, []int64{9, 7, 6, 5, 4}) {
		t.Fatalf("unexpected retained ids %v", got)
	}
	if res.StopReason != domain.StopEndOfData {
		t.Fatalf("expected end of data, got %s", res.StopReason)
	}
}

func TestPaginate_ForceRefreshRetainsEverything(t *testing.T) {
	f := newFakeFetcher()
	f.reviews("acme", []int64{6, 5}, []int64{4, 3}, []int64{2, 1})
	st := newFakeStore()
	_ = st.InsertReviews(context.Background(), "acme", []domain.Review{
		review("acme", 6), review("acme", 5), review("acme", 4), review("acme", 3),
	})

	res := paginate(f, st, domain.PageRange{}, true)

	if got := ids(res.Reviews); !reflect.DeepEqual(got, []int64{6, 5, 4, 3, 2, 1}) {
		t.Fatalf("expected every review, got %v", got)
	}
	if st.knownCalls != 0 {
		t.Fatalf("force refresh must not consult the store")
	}
}

func TestPaginate_SchemaErrorPageIsSkipped(t *testing.T) {
	f := newFakeFetcher()
	f.reviews("acme", []int64{9, 8}, []int64{7, 6}, []int64{5, 4})
	f.fail("acme", domain.ResourceReviews, 2, schemaErr("acme", 2))

	res := paginate(f, newFakeStore(), domain.PageRange{}, false)

	if res.Status != domain.StatusSuccess {
		t.Fatalf("one bad page must not fail the resource: %s %v", res.Status, res.Err)
	}
	if got := ids(res.Reviews); !reflect.DeepEqual(got, []int64{9, 8, 5, 4}) {
		t.Fatalf("expected pages 1 and 3 retained, got %v", got)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", res.Warnings)
	}
	if !reflect.DeepEqual(res.Pages, []int{1, 3}) {
		t.Fatalf("unexpected decoded pages %v", res.Pages)
	}
}

func TestPaginate_TooManySchemaErrorsStops(t *testing.T) {
	f := newFakeFetcher()
	for p := 1; p <= 20; p++ {
		f.fail("acme", domain.ResourceReviews, p, schemaErr("acme", p))
	}

	res := paginate(f, nil, domain.PageRange{}, false)

	if res.StopReason != domain.StopSchemaLimit {
		t.Fatalf("expected schema limit stop, got %s", res.StopReason)
	}
	if n := len(f.calls); n != app.MaxConsecutiveSchemaErrors+1 {
		t.Fatalf("expected %d fetches, got %d", app.MaxConsecutiveSchemaErrors+1, n)
	}
	var se *domain.SchemaError
	if !errors.As(res.Err, &se) {
		t.Fatalf("expected wrapped schema error, got %v", res.Err)
	}
}

func TestPaginate_ExhaustedRetriesMidwayIsPartial(t *testing.T) {
	f := newFakeFetcher()
	f.reviews("acme", []int64{9, 8}, []int64{7, 6}, []int64{5, 4})
	f.fail("acme", domain.ResourceReviews, 2, exhausted())

	res := paginate(f, newFakeStore(), domain.PageRange{}, false)

	if res.Status != domain.StatusPartial {
		t.Fatalf("expected partial, got %s", res.Status)
	}
	var ex *domain.ExhaustedRetriesError
	if !errors.As(res.Err, &ex) {
		t.Fatalf("expected exhausted retries error, got %v", res.Err)
	}
	if got := ids(res.Reviews); !reflect.DeepEqual(got, []int64{9, 8}) {
		t.Fatalf("expected page 1 retained, got %v", got)
	}
	if got := f.fetched(domain.ResourceReviews); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("pagination must stop at the failing page, fetched %v", got)
	}
}

func TestPaginate_FirstPageFailureIsFailure(t *testing.T) {
	res := paginate(newFakeFetcher(), nil, domain.PageRange{}, false)

	if res.Status != domain.StatusFailure {
		t.Fatalf("expected failure, got %s", res.Status)
	}
	var he *domain.HTTPError
	if !errors.As(res.Err, &he) || he.Status != 404 {
		t.Fatalf("expected 404, got %v", res.Err)
	}
}

func TestPaginate_RespectsPageRange(t *testing.T) {
	f := newFakeFetcher()
	f.reviews("acme", []int64{10, 9}, []int64{8, 7}, []int64{6, 5}, []int64{4, 3}, []int64{2, 1})

	res := paginate(f, nil, domain.PageRange{Start: 2, End: 3}, false)

	if got := f.fetched(domain.ResourceReviews); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("expected pages 2,3, got %v", got)
	}
	if res.StopReason != domain.StopPageBound || res.Status != domain.StatusSuccess {
		t.Fatalf("unexpected result %s %s", res.StopReason, res.Status)
	}
}

func TestPaginate_DropsDuplicatesWithinRun(t *testing.T) {
	f := newFakeFetcher()
	// the listing shifted between requests: 7 shows up on both pages
	f.reviews("acme", []int64{9, 8, 7}, []int64{7, 6, 5})

	res := paginate(f, nil, domain.PageRange{}, false)

	if got := ids(res.Reviews); !reflect.DeepEqual(got, []int64{9, 8, 7, 6, 5}) {
		t.Fatalf("unexpected ids %v", got)
	}
}

func TestPaginate_EmptyFirstPage(t *testing.T) {
	f := newFakeFetcher()
	f.pages[pageKey{"acme", domain.ResourceReviews, 1}] = pageResp{pg: domain.Page{Number: 1}}

	res := paginate(f, nil, domain.PageRange{}, false)

	if res.Status != domain.StatusSuccess || res.StopReason != domain.StopEndOfData || len(res.Reviews) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPaginate_StoreReadFailure(t *testing.T) {
	f := newFakeFetcher()
	f.reviews("acme", []int64{1})
	st := newFakeStore()
	st.failKnown = errors.New("disk I/O error")

	res := paginate(f, st, domain.PageRange{}, false)

	var pe *domain.PersistenceError
	if res.Status != domain.StatusFailure || !errors.As(res.Err, &pe) {
		t.Fatalf("expected failure with persistence error, got %s %v", res.Status, res.Err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("nothing should be fetched without the known set")
	}
}

func TestPaginate_UndecodableStatsFailsWithoutSecondPage(t *testing.T) {
	f := newFakeFetcher()
	f.fail("acme", domain.ResourceStats, 1, &domain.SchemaError{Business: "acme", Kind: domain.ResourceStats, Page: 1, Err: errors.New(`missing "monthlyStats"`)})

	p := app.NewPaginator(f, nil)
	res := p.Paginate(context.Background(), "acme", domain.ResourceStats, domain.PageRange{Start: 1}, false)

	if res.Status != domain.StatusFailure || res.StopReason != domain.StopError {
		t.Fatalf("unexpected result: status=%s stop=%s err=%v", res.Status, res.StopReason, res.Err)
	}
	if got := f.fetched(domain.ResourceStats); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("statistics must stop after page 1, fetched %v", got)
	}
	if len(res.Pages) != 0 || len(res.Stats) != 0 {
		t.Fatalf("expected nothing decoded, got pages %v stats %d", res.Pages, len(res.Stats))
	}
	var se *domain.SchemaError
	if !errors.As(res.Err, &se) {
		t.Fatalf("expected schema error, got %v", res.Err)
	}
}

func TestPaginate_StatsStopAfterFirstPage(t *testing.T) {
	f := newFakeFetcher()
	f.stats("acme", 12)

	p := app.NewPaginator(f, nil)
	res := p.Paginate(context.Background(), "acme", domain.ResourceStats, domain.PageRange{Start: 1}, false)

	if res.Status != domain.StatusSuccess || res.StopReason != domain.StopEndOfData || len(res.Stats) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := f.fetched(domain.ResourceStats); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("fetched %v", got)
	}
}
