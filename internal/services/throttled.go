package services

import (
	"context"
	"time"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultRetries = 2
	retryBackoff   = 500 * time.Millisecond
)

// Throttled wraps a [Provider] with a request rate limit, a per-call timeout and bounded retries
// for rate-limited, timed-out and 5xx responses.
type Throttled struct {
	Provider
	limiter *rate.Limiter
	timeout time.Duration
	retries int
	backoff time.Duration
}

// ThrottleOption configures a [Throttled] provider.
type ThrottleOption func(*Throttled)

// WithRetries sets the number of extra attempts made after a retryable failure.
func WithRetries(n int) ThrottleOption {
	return func(t *Throttled) { t.retries = max(n, 0) }
}

// WithBackoff sets the base delay between retries; attempt n waits n*d.
func WithBackoff(d time.Duration) ThrottleOption {
	return func(t *Throttled) { t.backoff = d }
}

// NewThrottled limits p to rps requests per second (unlimited when rps <= 0) and
// bounds each call by timeout (unbounded when timeout <= 0).
func NewThrottled(p Provider, rps float64, timeout time.Duration, opts ...ThrottleOption) *Throttled {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	t := &Throttled{
		Provider: p,
		limiter:  rate.NewLimiter(limit, 1),
		timeout:  timeout,
		retries:  defaultRetries,
		backoff:  retryBackoff,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Throttled) SearchByTitle(ctx context.Context, title string, year int, kind models.ContentType) ([]models.Candidate, error) {
	var out []models.Candidate
	err := t.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = t.Provider.SearchByTitle(ctx, title, year, kind)
		return err
	})
	return out, err
}

func (t *Throttled) GetDetails(ctx context.Context, cand models.Candidate) (*models.Details, error) {
	var out *models.Details
	err := t.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = t.Provider.GetDetails(ctx, cand)
		return err
	})
	return out, err
}

func (t *Throttled) do(ctx context.Context, call func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * t.backoff):
			}
		}

		if werr := t.limiter.Wait(ctx); werr != nil {
			return werr
		}

		err = t.once(ctx, call)
		if err == nil || !shared.IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (t *Throttled) once(ctx context.Context, call func(context.Context) error) error {
	if t.timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return call(callCtx)
}
