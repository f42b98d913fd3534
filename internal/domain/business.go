package domain

import "time"

// BusinessID is the HelloPeter slug naming a business (e.g. "bank-zero-mutual-bank").
type BusinessID string

type ResourceKind string

const (
	ResourceReviews ResourceKind = "reviews"
	ResourceStats   ResourceKind = "statistics"
)

type Business struct {
	Slug         BusinessID `json:"slug"`
	Name         string     `json:"name"`
	IndustryName *string    `json:"industry_name,omitempty"`
	IndustrySlug *string    `json:"industry_slug,omitempty"`
}

// PlaceholderBusiness is stored when reviews or stats arrived without any profile fragment.
func PlaceholderBusiness(id BusinessID) Business {
	return Business{Slug: id, Name: string(id)}
}

type StatsSnapshot struct {
	Business         BusinessID `json:"business"`
	FetchedAt        time.Time  `json:"fetched_at"`
	TotalReviews     int        `json:"total_reviews"`
	AverageRating    float64    `json:"average_rating"`
	TrustIndex       float64    `json:"trust_index"`
	RatingCounts     [5]int     `json:"rating_counts"` // index 0 = 1 star
	IndustryID       *int64     `json:"industry_id,omitempty"`
	IndustryRanking  *int       `json:"industry_ranking,omitempty"`
	ReviewCountTotal *int       `json:"review_count_total,omitempty"`
	AvgResponseTime  *float64   `json:"avg_response_time,omitempty"`
	ResponseRate     *float64   `json:"response_rate,omitempty"`
	RawJSON          []byte     `json:"-"`
}

// PageRange bounds pagination; pages are 1-based and End == 0 means "until the data runs out".
type PageRange struct {
	Start int
	End   int
}

func (r PageRange) First() int {
	if r.Start < 1 {
		return 1
	}
	return r.Start
}

func (r PageRange) Exceeds(page int) bool {
	return r.End > 0 && page > r.End
}

// Page is one decoded API response.
type Page struct {
	Number     int
	Reviews    []Review
	Stats      []StatsSnapshot
	Profile    *Business
	HasMore    bool
	TotalPages int // 0 when the API did not say
}

func (p Page) Len() int { return len(p.Reviews) + len(p.Stats) }
