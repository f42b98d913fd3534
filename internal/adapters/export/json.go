package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"reviewsync/internal/domain"
)

// JSONSink writes business_, reviews_ and stats_ files per business.
type JSONSink struct{ files }

func NewJSONSink(dir string) *JSONSink { return &JSONSink{files{dir: dir, now: time.Now}} }

// WithClock overrides the clock used for file name stamps.
func (s *JSONSink) WithClock(now func() time.Time) *JSONSink {
	s.now = now
	return s
}

func (s *JSONSink) Write(ctx context.Context, out domain.BusinessOutcome) error {
	type part struct {
		kind string
		v    any
		skip bool
	}
	parts := []part{
		{kind: "business", v: profileOf(out)},
		{kind: "reviews", v: out.ReviewList(), skip: len(out.ReviewList()) == 0},
		{kind: "stats", v: out.StatsList(), skip: len(out.StatsList()) == 0},
	}
	for _, p := range parts {
		if p.skip {
			continue
		}
		v := p.v
		_, err := s.create(s.name(p.kind, out.Business, "json"), func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "    ")
			return enc.Encode(v)
		})
		if err != nil {
			return &domain.PersistenceError{Business: out.Business, Op: "json " + p.kind, Err: err}
		}
	}
	return nil
}
