package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for pacing requests
type Limiter interface {
	// Allow checks if a request is allowed right now
	Allow() bool
	// Wait blocks until the next request is allowed
	Wait()
	// Reset resets the limiter state
	Reset()
}

// Pacer enforces a fixed minimum interval between requests. This is the
// polite-scraping delay between page navigations and downloads: a shared
// single session must never hammer the host.
type Pacer struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
}

// NewPacer creates a pacer with the given minimum interval. A zero or
// negative interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Allow reports whether enough time has passed since the last request,
// and claims the slot if so
func (p *Pacer) Allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.interval <= 0 || p.last.IsZero() || now.Sub(p.last) >= p.interval {
		p.last = now
		return true
	}
	return false
}

// Wait blocks until the interval has elapsed, then claims the slot
func (p *Pacer) Wait() {
	for {
		p.mu.Lock()
		now := time.Now()
		if p.interval <= 0 || p.last.IsZero() || now.Sub(p.last) >= p.interval {
			p.last = now
			p.mu.Unlock()
			return
		}
		remaining := p.interval - now.Sub(p.last)
		p.mu.Unlock()

		time.Sleep(remaining)
	}
}

// Reset clears the last-request timestamp so the next request is immediate
func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = time.Time{}
}

// Nop is a limiter that never blocks; used when pacing is disabled
type Nop struct{}

func (Nop) Allow() bool { return true }
func (Nop) Wait()       {}
func (Nop) Reset()      {}
