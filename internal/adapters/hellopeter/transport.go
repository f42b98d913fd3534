package hellopeter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"reviewsync/internal/adapters/observability"
	"reviewsync/internal/domain"
)

const service = "hellopeter"

// TransportConfig tunes politeness towards the remote API.
type TransportConfig struct {
	// MinDelay is the minimum gap between two consecutive outbound calls (retries included).
	MinDelay  time.Duration
	Timeout   time.Duration
	UserAgent string
	Retry     RetryPolicy
}

func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MinDelay:  1 * time.Second,
		Timeout:   20 * time.Second,
		UserAgent: "reviewsync/" + Version,
		Retry:     DefaultRetryPolicy(),
	}
}

// Transport is the only place allowed to block for politeness: it spaces calls
// through one limiter and walks the retry ladder on transient failures.
// Share a single instance across every fetch of a run.
type Transport struct {
	hc    *http.Client
	rl    *rate.Limiter
	cfg   TransportConfig
	sleep Sleeper
}

func NewTransport(cfg TransportConfig) *Transport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "reviewsync/" + Version
	}
	limit := rate.Inf
	if cfg.MinDelay > 0 {
		limit = rate.Every(cfg.MinDelay)
	}
	return &Transport{
		hc:    &http.Client{Timeout: cfg.Timeout},
		rl:    rate.NewLimiter(limit, 1),
		cfg:   cfg,
		sleep: sleepCtx,
	}
}

// Get fetches url and returns the body of a 2xx response.
// Errors: *domain.HTTPError for permanent statuses, *domain.ExhaustedRetriesError once
// transient failures used up the policy, or the context error.
func (t *Transport) Get(ctx context.Context, endpoint, url string) ([]byte, error) {
	var body []byte
	err := Retry(ctx, t.cfg.Retry, t.sleep, func(ctx context.Context, attempt int) (time.Duration, error) {
		b, hint, err := t.do(ctx, endpoint, url)
		if err != nil {
			lg := log.Warn().Err(err).Str("url", url).Int("attempt", attempt)
			if domain.IsTransient(err) && attempt < t.cfg.Retry.normalized().MaxAttempts {
				observability.ObserveRetry(service, cause(err))
				lg.Msg("transient failure, backing off")
			} else {
				lg.Msg("request failed")
			}
			return hint, err
		}
		body = b
		return 0, nil
	})
	var ex *domain.ExhaustedRetriesError
	if errors.As(err, &ex) {
		observability.ObserveExhausted(service)
	}
	return body, err
}

// do performs a single rate-limited GET.
func (t *Transport) do(ctx context.Context, endpoint, url string) ([]byte, time.Duration, error) {
	if err := t.rl.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.cfg.UserAgent)

	start := time.Now()
	resp, err := t.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, &domain.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, &domain.NetworkError{URL: url, Err: fmt.Errorf("read body: %w", err)}
		}
		return b, 0, nil
	}

	// read a small error body for diagnostics
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	herr := &domain.HTTPError{URL: url, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	if herr.Transient() {
		return nil, retryAfter(resp), herr
	}
	return nil, 0, herr
}

func cause(err error) string {
	var he *domain.HTTPError
	if errors.As(err, &he) {
		return "http_" + strconv.Itoa(he.Status)
	}
	return "network"
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
