package market

import (
	"context"
	"sync"
	"time"
)

// Pacer is the global single-flight throttle: it keeps a single "last
// request" timestamp and delays every caller until at least interval has
// elapsed since the previous one. It paces all outbound calls regardless of
// target; it does not order completions, only starts. The mutex is held
// across the wait so concurrent callers queue up FIFO.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewPacer creates a pacer enforcing the given minimum interval.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until the minimum interval since the previous call has
// elapsed, then stamps the new request time. Returns early with the
// context's error if ctx is cancelled while waiting.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if wait := p.interval - time.Since(p.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.last = time.Now()
	return nil
}
