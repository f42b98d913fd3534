package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewsync/internal/app"
	"reviewsync/internal/domain"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type businessesResponse struct {
	Items []domain.Business `json:"items"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/businesses", func(r chi.Router) {
		r.Get("/", h.listBusinesses)
		r.Get("/{slug}", h.getBusiness)
		r.Get("/{slug}/reviews", h.listReviews)
		r.Get("/{slug}/stats", h.latestStats)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeLookupError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Str("lookup", what).Msg("query failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached answers 304 when the client already holds this representation.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func parseLimit(r *http.Request, def, max int) (int, bool) {
	ls := r.URL.Query().Get("limit")
	if ls == "" {
		return def, true
	}
	l, err := strconv.Atoi(ls)
	if err != nil || l <= 0 || l > max {
		return 0, false
	}
	return l, true
}

func slugParam(r *http.Request) domain.BusinessID {
	return domain.BusinessID(chi.URLParam(r, "slug"))
}

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, app.DefaultListLimit, 500)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 500")
		return
	}
	bs, err := h.Q.ListBusinesses(r.Context(), limit)
	if err != nil {
		writeLookupError(w, err, "businesses")
		return
	}
	if bs == nil {
		bs = []domain.Business{}
	}
	writeCached(w, r, businessesResponse{Items: bs})
}

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.Q.GetBusiness(r.Context(), slugParam(r))
	if err != nil {
		writeLookupError(w, err, "business")
		return
	}
	writeCached(w, r, b)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id := slugParam(r)
	limit, ok := parseLimit(r, app.DefaultReviewsLimit, 200)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
		return
	}
	sort := r.URL.Query().Get("sort")
	switch sort {
	case "":
		sort = app.DefaultReviewsSort
	case "created_at", "-created_at":
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid sort", "sort must be created_at or -created_at")
		return
	}

	// unknown business is a 404, not an empty list
	if _, err := h.Q.GetBusiness(r.Context(), id); err != nil {
		writeLookupError(w, err, "business")
		return
	}
	out, err := h.Q.ListReviews(r.Context(), id, domain.PageQuery{Limit: limit, Sort: sort})
	if err != nil {
		writeLookupError(w, err, "reviews")
		return
	}
	if out.Items == nil {
		out.Items = []domain.Review{}
	}
	writeCached(w, r, out)
}

func (h *Handlers) latestStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Q.LatestStats(r.Context(), slugParam(r))
	if err != nil {
		writeLookupError(w, err, "statistics")
		return
	}
	writeCached(w, r, st)
}
