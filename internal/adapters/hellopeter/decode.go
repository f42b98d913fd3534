package hellopeter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reviewsync/internal/domain"
)

const (
	createdAtLayout     = "2006-01-02 15:04:05"
	authorCreatedLayout = "2006-01-02"
)

/********** wire shapes **********/

type reviewsPayload struct {
	CurrentPage *int               `json:"current_page"`
	LastPage    *int               `json:"last_page"`
	NextPageURL optionalStr        `json:"next_page_url"`
	Data        *[]json.RawMessage `json:"data"`
}

type reviewPayload struct {
	ID                      *int64    `json:"id"`
	UserID                  *flexStr  `json:"user_id"`
	CreatedAt               *string   `json:"created_at"`
	AuthorDisplayName       *string   `json:"authorDisplayName"`
	Author                  *string   `json:"author"`
	AuthorID                *flexStr  `json:"author_id"`
	ReviewTitle             *string   `json:"review_title"`
	ReviewRating            *int      `json:"review_rating"`
	ReviewContent           *string   `json:"review_content"`
	Permalink               *string   `json:"permalink"`
	Replied                 *flexBool `json:"replied"`
	NPSRating               *int      `json:"nps_rating"`
	Source                  *string   `json:"source"`
	IsReported              *flexBool `json:"is_reported"`
	AuthorCreatedDate       *string   `json:"author_created_date"`
	AuthorTotalReviewsCount *int      `json:"author_total_reviews_count"`
	BusinessName            *string   `json:"business_name"`
	IndustryName            *string   `json:"industry_name"`
	IndustrySlug            *string   `json:"industry_slug"`
}

type statsPayload struct {
	TotalReviews    *int          `json:"totalReviews"`
	ReviewAverage   *flexFloat    `json:"reviewAverage"`
	AvgResponseTime *float64      `json:"avgResponseTime"`
	ResponseRate    *float64      `json:"responseRate"`
	MonthlyStats    *monthlyStats `json:"monthlyStats"`
	ReviewRatings   *struct {
		Rows [][]json.RawMessage `json:"rows"`
	} `json:"reviewRatings"`
}

type monthlyStats struct {
	BusinessName     *string  `json:"businessName"`
	TrustIndex       *float64 `json:"trustIndex"`
	IndustryID       *int64   `json:"industryId"`
	IndustryName     *string  `json:"industryName"`
	IndustrySlug     *string  `json:"industrySlug"`
	IndustryRanking  *int     `json:"industryRanking"`
	ReviewCountTotal *int     `json:"reviewCountTotal"`
}

/********** lenient scalars (the API is inconsistent about these) **********/

// optionalStr tells an absent key apart from an explicit null.
type optionalStr struct {
	Present bool
	Value   string
}

func (o *optionalStr) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = ""
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// flexBool accepts true/false and 0/1.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch s := string(bytes.TrimSpace(data)); s {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("cannot use %s as a boolean", s)
	}
	return nil
}

// flexStr accepts strings and numbers.
type flexStr string

func (s *flexStr) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexStr(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cannot use %s as a string", data)
	}
	*s = flexStr(n.String())
	return nil
}

// flexFloat accepts numbers and numeric strings such as "3.5".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cannot use %s as a number", data)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("cannot use %q as a number", s)
	}
	*f = flexFloat(n)
	return nil
}

/********** decoders **********/

func strPtr(p *flexStr) *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}

func decodeReviewsPage(id domain.BusinessID, page int, body []byte) (domain.Page, error) {
	var p reviewsPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.Page{}, err
	}
	if p.Data == nil {
		return domain.Page{}, errors.New(`missing "data"`)
	}
	if p.LastPage == nil && !p.NextPageURL.Present {
		return domain.Page{}, errors.New(`missing both "last_page" and "next_page_url"`)
	}

	out := domain.Page{Number: page, Reviews: make([]domain.Review, 0, len(*p.Data))}
	for i, raw := range *p.Data {
		var rp reviewPayload
		if err := json.Unmarshal(raw, &rp); err != nil {
			return domain.Page{}, fmt.Errorf("review #%d: %w", i, err)
		}
		if rp.ID == nil {
			return domain.Page{}, fmt.Errorf(`review #%d: missing "id"`, i)
		}
		rv, err := mapReview(id, rp, raw)
		if err != nil {
			return domain.Page{}, err
		}
		if out.Profile == nil && rp.BusinessName != nil && *rp.BusinessName != "" {
			out.Profile = &domain.Business{
				Slug:         id,
				Name:         *rp.BusinessName,
				IndustryName: rp.IndustryName,
				IndustrySlug: rp.IndustrySlug,
			}
		}
		out.Reviews = append(out.Reviews, rv)
	}

	current := page
	if p.CurrentPage != nil {
		current = *p.CurrentPage
	}
	if p.LastPage != nil {
		out.TotalPages = *p.LastPage
		out.HasMore = current < *p.LastPage
	} else {
		out.HasMore = p.NextPageURL.Value != ""
	}
	return out, nil
}

func mapReview(id domain.BusinessID, rp reviewPayload, raw json.RawMessage) (domain.Review, error) {
	if rp.ID == nil {
		return domain.Review{}, errors.New(`missing "id"`)
	}
	if rp.ReviewRating == nil {
		return domain.Review{}, fmt.Errorf(`review %d: missing "review_rating"`, *rp.ID)
	}
	if rp.CreatedAt == nil {
		return domain.Review{}, fmt.Errorf(`review %d: missing "created_at"`, *rp.ID)
	}
	created, err := time.ParseInLocation(createdAtLayout, *rp.CreatedAt, time.UTC)
	if err != nil {
		return domain.Review{}, fmt.Errorf("review %d: created_at: %w", *rp.ID, err)
	}

	rv := domain.Review{
		ID:                 *rp.ID,
		Business:           id,
		UserID:             strPtr(rp.UserID),
		Author:             rp.Author,
		AuthorDisplayName:  rp.AuthorDisplayName,
		AuthorID:           strPtr(rp.AuthorID),
		Title:              rp.ReviewTitle,
		Rating:             *rp.ReviewRating,
		Content:            rp.ReviewContent,
		CreatedAt:          created,
		Permalink:          rp.Permalink,
		NPSRating:          rp.NPSRating,
		Source:             rp.Source,
		AuthorTotalReviews: rp.AuthorTotalReviewsCount,
		RawJSON:            append([]byte(nil), raw...),
	}
	if rp.Replied != nil {
		rv.Replied = bool(*rp.Replied)
	}
	if rp.IsReported != nil {
		rv.IsReported = bool(*rp.IsReported)
	}
	if rp.AuthorCreatedDate != nil && *rp.AuthorCreatedDate != "" {
		d, err := time.ParseInLocation(authorCreatedLayout, *rp.AuthorCreatedDate, time.UTC)
		if err != nil {
			return domain.Review{}, fmt.Errorf("review %d: author_created_date: %w", *rp.ID, err)
		}
		rv.AuthorCreatedDate = &d
	}
	return rv, nil
}

func decodeStats(id domain.BusinessID, body []byte, now time.Time) (domain.Page, error) {
	var p statsPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.Page{}, err
	}
	switch {
	case p.TotalReviews == nil:
		return domain.Page{}, errors.New(`missing "totalReviews"`)
	case p.ReviewAverage == nil:
		return domain.Page{}, errors.New(`missing "reviewAverage"`)
	case p.MonthlyStats == nil:
		return domain.Page{}, errors.New(`missing "monthlyStats"`)
	}
	ms := p.MonthlyStats

	snap := domain.StatsSnapshot{
		Business:         id,
		FetchedAt:        now.UTC(),
		TotalReviews:     *p.TotalReviews,
		AverageRating:    float64(*p.ReviewAverage),
		IndustryID:       ms.IndustryID,
		IndustryRanking:  ms.IndustryRanking,
		ReviewCountTotal: ms.ReviewCountTotal,
		AvgResponseTime:  p.AvgResponseTime,
		ResponseRate:     p.ResponseRate,
		RawJSON:          append([]byte(nil), body...),
	}
	if ms.TrustIndex != nil {
		snap.TrustIndex = *ms.TrustIndex
	}
	if p.ReviewRatings != nil {
		counts, err := ratingCounts(p.ReviewRatings.Rows)
		if err != nil {
			return domain.Page{}, err
		}
		snap.RatingCounts = counts
	}

	out := domain.Page{Number: 1, Stats: []domain.StatsSnapshot{snap}, TotalPages: 1}
	if ms.BusinessName != nil && *ms.BusinessName != "" {
		out.Profile = &domain.Business{
			Slug:         id,
			Name:         *ms.BusinessName,
			IndustryName: ms.IndustryName,
			IndustrySlug: ms.IndustrySlug,
		}
	}
	return out, nil
}

// ratingCounts reads rows like ["4 Stars", 12] into a 1..5 star histogram.
func ratingCounts(rows [][]json.RawMessage) ([5]int, error) {
	var out [5]int
	for i, row := range rows {
		if len(row) < 2 {
			return out, fmt.Errorf("reviewRatings row %d: want [label, count]", i)
		}
		var label string
		if err := json.Unmarshal(row[0], &label); err != nil {
			return out, fmt.Errorf("reviewRatings row %d label: %w", i, err)
		}
		var count int
		if err := json.Unmarshal(row[1], &count); err != nil {
			return out, fmt.Errorf("reviewRatings row %d count: %w", i, err)
		}
		fields := strings.Fields(label)
		if len(fields) == 0 {
			return out, fmt.Errorf("reviewRatings row %d: empty label", i)
		}
		star, err := strconv.Atoi(fields[0])
		if err != nil || star < 1 || star > 5 {
			return out, fmt.Errorf("reviewRatings row %d: unknown label %q", i, label)
		}
		out[star-1] = count
	}
	return out, nil
}
