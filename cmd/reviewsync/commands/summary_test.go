package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"reviewsync/internal/domain"
)

func outcome(id string, st domain.Status, reviews int, err error) domain.BusinessOutcome {
	rs := make([]domain.Review, reviews)
	return domain.BusinessOutcome{
		Business: domain.BusinessID(id),
		Status:   st,
		Err:      err,
		Reviews:  &domain.ResourceResult{Kind: domain.ResourceReviews, Status: st, Reviews: rs},
		Stats:    &domain.ResourceResult{Kind: domain.ResourceStats, Status: st, Stats: []domain.StatsSnapshot{{}}},
	}
}

func TestSummarize(t *testing.T) {
	outs := []domain.BusinessOutcome{
		outcome("acme", domain.StatusSuccess, 3, nil),
		outcome("globex", domain.StatusPartial, 2, errors.New("reviews: exhausted")),
		outcome("initech", domain.StatusFailure, 0, errors.New("reviews: 404")),
	}
	s := summarize(outs)
	want := runSummary{Processed: 2, Partial: 1, Failed: 1, Reviews: 5, Stats: 2}
	if s != want {
		t.Fatalf("summary = %+v, want %+v", s, want)
	}
}

func TestRenderSummary(t *testing.T) {
	outs := []domain.BusinessOutcome{
		outcome("acme", domain.StatusSuccess, 3, nil),
		outcome("globex", domain.StatusPartial, 2, errors.Join(errors.New("reviews: exhausted"), errors.New("stats: 503"))),
	}
	var buf bytes.Buffer
	renderSummary(&buf, outs, summarize(outs))
	got := buf.String()
	for _, want := range []string{"acme", "globex", "partial", "reviews: exhausted (+more)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestBusinessIDs(t *testing.T) {
	got := businessIDs([]string{" acme ", "", "globex", "  "})
	if len(got) != 2 || got[0] != "acme" || got[1] != "globex" {
		t.Fatalf("ids = %v", got)
	}
}
