package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/fairuzakhdan/smartvowd/internal/metrics"
	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket rate limiter for JSON-RPC calls. The public
// testnet RPC endpoints throttle aggressively, so the client smooths its own
// call rate instead of burning retries on 429s.
type Limiter struct {
	limiter  *rate.Limiter
	endpoint string
}

// NewLimiter creates a rate limiter that allows rps requests per second with
// a burst capacity of burst tokens.
func NewLimiter(rps float64, burst int, endpoint string) *Limiter {
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		endpoint: endpoint,
	}
}

// Wait blocks until the limiter allows one event, or ctx is done.
// Uses Reserve() to guarantee exactly one token is consumed per call.
func (l *Limiter) Wait(ctx context.Context) error {
	r := l.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate: cannot reserve token")
	}
	delay := r.Delay()
	if delay > 0 {
		metrics.RPCRateLimitWaits.WithLabelValues(l.endpoint).Inc()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}
