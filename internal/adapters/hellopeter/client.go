package hellopeter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"reviewsync/internal/domain"
)

// Version is reported in the User-Agent.
const Version = "1.0.0"

const DefaultBaseURL = "https://api-v6.hellopeter.com/api/consumer"

// Client is the page fetcher for the HelloPeter consumer API.
type Client struct {
	base     string
	pageSize int
	tr       *Transport
	now      func() time.Time
}

func New(base string, pageSize int, tr *Transport) (*Client, error) {
	if tr == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		pageSize: pageSize,
		tr:       tr,
		now:      time.Now,
	}, nil
}

// FetchPage issues one request for the given resource page and decodes it strictly.
// Decode failures come back as *domain.SchemaError; transport failures pass through untouched.
// Statistics are a single-page resource: page 1 carries the snapshot and HasMore is always false.
func (c *Client) FetchPage(ctx context.Context, id domain.BusinessID, kind domain.ResourceKind, page int) (domain.Page, error) {
	switch kind {
	case domain.ResourceReviews:
		body, err := c.tr.Get(ctx, string(kind), c.reviewsURL(id, page))
		if err != nil {
			return domain.Page{}, err
		}
		out, err := decodeReviewsPage(id, page, body)
		if err != nil {
			return domain.Page{}, &domain.SchemaError{Business: id, Kind: kind, Page: page, Err: err}
		}
		return out, nil

	case domain.ResourceStats:
		if page > 1 {
			return domain.Page{Number: page}, nil
		}
		body, err := c.tr.Get(ctx, string(kind), c.statsURL(id))
		if err != nil {
			return domain.Page{}, err
		}
		out, err := decodeStats(id, body, c.now())
		if err != nil {
			return domain.Page{}, &domain.SchemaError{Business: id, Kind: kind, Page: page, Err: err}
		}
		return out, nil

	default:
		return domain.Page{}, fmt.Errorf("unknown resource kind %q", kind)
	}
}

func (c *Client) reviewsURL(id domain.BusinessID, page int) string {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("count", fmt.Sprint(c.pageSize))
	return fmt.Sprintf("%s/business/%s/reviews?%s", c.base, url.PathEscape(string(id)), q.Encode())
}

func (c *Client) statsURL(id domain.BusinessID) string {
	return fmt.Sprintf("%s/business-stats/%s", c.base, url.PathEscape(string(id)))
}
