package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// retrier re-sends a request after outages and rate limits, backing off
// exponentially. A malformed reply gets one more try. Any other failure
// is returned at once.
type retrier struct {
	next  Provider
	cfg   RetryConfig
	sleep func(context.Context, time.Duration) error
}

func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &retrier{next: p, cfg: cfg, sleep: sleepCtx}
}

func (r *retrier) ModelID() string { return r.next.ModelID() }

func (r *retrier) Generate(ctx context.Context, req Request) (*Response, error) {
	malformedLeft := 1
	for attempt := 1; ; attempt++ {
		resp, err := r.next.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= r.cfg.MaxAttempts {
			return nil, err
		}

		var inv *ErrInvalidResponse
		switch {
		case errors.As(err, &inv):
			if malformedLeft == 0 {
				return nil, err
			}
			malformedLeft--
		case !transient(err):
			return nil, err
		}

		if serr := r.sleep(ctx, r.delay(attempt, err)); serr != nil {
			return nil, serr
		}
	}
}

func transient(err error) bool {
	var (
		rl   *ErrRateLimit
		down *ErrProviderUnavailable
	)
	return errors.As(err, &rl) || errors.As(err, &down)
}

// delay is the wait after the given 1-based attempt. A vendor Retry-After
// wins over the computed backoff.
func (r *retrier) delay(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	d = math.Min(d, float64(r.cfg.MaxWait))
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
