package domain

import "time"

type Review struct {
	ID                 int64      `json:"id"`
	Business           BusinessID `json:"business"`
	UserID             *string    `json:"user_id,omitempty"`
	Author             *string    `json:"author,omitempty"`
	AuthorDisplayName  *string    `json:"author_display_name,omitempty"`
	AuthorID           *string    `json:"author_id,omitempty"`
	Title              *string    `json:"title,omitempty"`
	Rating             int        `json:"rating"`
	Content            *string    `json:"content,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	Permalink          *string    `json:"permalink,omitempty"`
	Replied            bool       `json:"replied"`
	NPSRating          *int       `json:"nps_rating,omitempty"`
	Source             *string    `json:"source,omitempty"`
	IsReported         bool       `json:"is_reported"`
	AuthorCreatedDate  *time.Time `json:"author_created_date,omitempty"`
	AuthorTotalReviews *int       `json:"author_total_reviews,omitempty"`
	RawJSON            []byte     `json:"-"` // full review payload
}
