package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	server "reviewsync/internal/adapters/http_server"
	"reviewsync/internal/app"
	"reviewsync/internal/domain"
)

type memReader struct {
	businesses map[domain.BusinessID]domain.Business
	reviews    map[domain.BusinessID][]domain.Review
	stats      map[domain.BusinessID]domain.StatsSnapshot
	lastQuery  domain.PageQuery
}

func (m *memReader) GetBusiness(ctx context.Context, id domain.BusinessID) (domain.Business, error) {
	b, ok := m.businesses[id]
	if !ok {
		return domain.Business{}, domain.ErrNotFound
	}
	return b, nil
}
func (m *memReader) ListBusinesses(ctx context.Context, limit int) ([]domain.Business, error) {
	var out []domain.Business
	for _, b := range m.businesses {
		out = append(out, b)
	}
	return out, nil
}
func (m *memReader) ListReviews(ctx context.Context, id domain.BusinessID, pg domain.PageQuery) (domain.ReviewsPage, error) {
	m.lastQuery = pg
	rs := m.reviews[id]
	if len(rs) > pg.Limit {
		rs = rs[:pg.Limit]
	}
	return domain.ReviewsPage{Items: rs}, nil
}
func (m *memReader) LatestStats(ctx context.Context, id domain.BusinessID) (domain.StatsSnapshot, error) {
	s, ok := m.stats[id]
	if !ok {
		return domain.StatsSnapshot{}, domain.ErrNotFound
	}
	return s, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memReader) {
	t.Helper()
	repo := &memReader{
		businesses: map[domain.BusinessID]domain.Business{"acme": {Slug: "acme", Name: "Acme"}},
		reviews: map[domain.BusinessID][]domain.Review{"acme": {
			{ID: 2, Business: "acme", Rating: 5, CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
			{ID: 1, Business: "acme", Rating: 1, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		}},
		stats: map[domain.BusinessID]domain.StatsSnapshot{"acme": {Business: "acme", TotalReviews: 2, AverageRating: 3}},
	}
	srv := server.New()
	srv.MountHandlers(&server.Handlers{Q: app.NewQueryService(repo, nil, time.Minute)})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, repo
}

func get(t *testing.T, url string, hdr map[string]string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestGetBusiness_ETag(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := get(t, ts.URL+"/v1/businesses/acme", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var b domain.Business
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil || b.Name != "Acme" {
		t.Fatalf("unexpected body %+v err=%v", b, err)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	again := get(t, ts.URL+"/v1/businesses/acme", map[string]string{"If-None-Match": etag})
	if again.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", again.StatusCode)
	}
}

func TestGetBusiness_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := get(t, ts.URL+"/v1/businesses/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json, got %q", ct)
	}
}

func TestListReviews(t *testing.T) {
	ts, repo := newTestServer(t)

	resp := get(t, ts.URL+"/v1/businesses/acme/reviews?limit=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var page domain.ReviewsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if repo.lastQuery.Sort != "-created_at" || repo.lastQuery.Limit != 1 {
		t.Fatalf("unexpected query %+v", repo.lastQuery)
	}

	for _, q := range []string{"?limit=0", "?limit=abc", "?limit=201", "?sort=rating"} {
		if resp := get(t, ts.URL+"/v1/businesses/acme/reviews"+q, nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
	if resp := get(t, ts.URL+"/v1/businesses/ghost/reviews", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown business, got %d", resp.StatusCode)
	}
}

func TestStatsAndList(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := get(t, ts.URL+"/v1/businesses/acme/stats", nil)
	var st domain.StatsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil || st.TotalReviews != 2 {
		t.Fatalf("unexpected stats %+v err=%v", st, err)
	}
	if resp := get(t, ts.URL+"/v1/businesses/ghost/stats", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	list := get(t, ts.URL+"/v1/businesses", nil)
	var body struct {
		Items []domain.Business `json:"items"`
	}
	if err := json.NewDecoder(list.Body).Decode(&body); err != nil || len(body.Items) != 1 {
		t.Fatalf("unexpected list %+v err=%v", body, err)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	if resp := get(t, ts.URL+"/healthz", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReadOnlyAndUnknownRoutes(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/businesses/acme", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json, got %q", ct)
	}

	if r := get(t, ts.URL+"/v2/nothing", nil); r.StatusCode != http.StatusNotFound || r.Header.Get("Content-Type") != "application/problem+json" {
		t.Fatalf("unknown route: status %d type %q", r.StatusCode, r.Header.Get("Content-Type"))
	}
}

func TestTrailingSlashIsIgnored(t *testing.T) {
	ts, _ := newTestServer(t)
	if resp := get(t, ts.URL+"/v1/businesses/acme/", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
