package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"reviewsync/internal/domain"
)

var businessHeader = []string{"business_slug", "business_name", "business_industry_name", "business_industry_slug"}

var reviewsHeader = []string{
	"id", "user_id", "created_at", "author", "author_display_name", "author_id", "title", "rating",
	"content", "permalink", "replied", "nps_rating", "source", "is_reported", "author_created_date",
	"author_total_reviews",
}

var statsHeader = []string{
	"fetched_at", "total_reviews", "average_rating", "trust_index",
	"rating_1", "rating_2", "rating_3", "rating_4", "rating_5",
	"industry_id", "industry_ranking", "review_count_total", "avg_response_time", "response_rate",
}

// CSVSink writes reviews_<slug>_<stamp>.csv and stats_<slug>_<stamp>.csv.
// Every row starts with the business columns.
type CSVSink struct{ files }

func NewCSVSink(dir string) *CSVSink { return &CSVSink{files{dir: dir, now: time.Now}} }

// WithClock overrides the clock used for file name stamps.
func (s *CSVSink) WithClock(now func() time.Time) *CSVSink {
	s.now = now
	return s
}

func (s *CSVSink) Write(ctx context.Context, out domain.BusinessOutcome) error {
	biz := profileOf(out)
	bcols := []string{string(out.Business), biz.Name, optStr(biz.IndustryName), optStr(biz.IndustrySlug)}

	if rs := out.ReviewList(); len(rs) > 0 {
		_, err := s.create(s.name("reviews", out.Business, "csv"), func(w io.Writer) error {
			return writeCSV(w, append(businessHeader, reviewsHeader...), len(rs), func(i int) []string {
				return append(append([]string(nil), bcols...), reviewRow(rs[i])...)
			})
		})
		if err != nil {
			return &domain.PersistenceError{Business: out.Business, Op: "csv reviews", Err: err}
		}
	}

	if ss := out.StatsList(); len(ss) > 0 {
		_, err := s.create(s.name("stats", out.Business, "csv"), func(w io.Writer) error {
			return writeCSV(w, append(businessHeader, statsHeader...), len(ss), func(i int) []string {
				return append(append([]string(nil), bcols...), statsRow(ss[i])...)
			})
		})
		if err != nil {
			return &domain.PersistenceError{Business: out.Business, Op: "csv stats", Err: err}
		}
	}
	return nil
}

func writeCSV(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func reviewRow(r domain.Review) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		optStr(r.UserID),
		optTime(&r.CreatedAt, "2006-01-02 15:04:05"),
		optStr(r.Author),
		optStr(r.AuthorDisplayName),
		optStr(r.AuthorID),
		optStr(r.Title),
		strconv.Itoa(r.Rating),
		optStr(r.Content),
		optStr(r.Permalink),
		strconv.FormatBool(r.Replied),
		optInt(r.NPSRating),
		optStr(r.Source),
		strconv.FormatBool(r.IsReported),
		optTime(r.AuthorCreatedDate, "2006-01-02"),
		optInt(r.AuthorTotalReviews),
	}
}

func statsRow(s domain.StatsSnapshot) []string {
	row := []string{
		optTime(&s.FetchedAt, time.RFC3339),
		strconv.Itoa(s.TotalReviews),
		formatFloat(s.AverageRating),
		formatFloat(s.TrustIndex),
	}
	for _, c := range s.RatingCounts {
		row = append(row, strconv.Itoa(c))
	}
	return append(row,
		optInt64(s.IndustryID),
		optInt(s.IndustryRanking),
		optInt(s.ReviewCountTotal),
		optFloat(s.AvgResponseTime),
		optFloat(s.ResponseRate),
	)
}
