package checker

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// minRate is the lowest rate in requests per second the throttle backs off to.
	minRate = 1.0

	// emaAlpha is the smoothing factor for the latency moving average.
	// 0.2 means ~20% weight to new observation, ~80% to historical average.
	emaAlpha = 0.2

	// recoveryFactor is the multiplier applied per fast observation.
	recoveryFactor = 1.1

	// backoffFactor limits how much the rate can drop in a single step.
	backoffFactor = 0.5
)

// Throttle limits how fast the pool starts fetches. It never exceeds the
// configured rate, and backs off toward minRate while observed latency stays
// above the target, recovering as responses speed up again.
type Throttle struct {
	limiter   *rate.Limiter
	targetRTT time.Duration
	ceiling   float64

	mu          sync.Mutex
	emaRTT      time.Duration
	currentRate float64
}

// NewThrottle creates a Throttle allowing rps requests per second.
func NewThrottle(rps int, targetRTT time.Duration) *Throttle {
	ceiling := math.Max(float64(rps), minRate)
	return &Throttle{
		limiter:     rate.NewLimiter(rate.Limit(ceiling), int(math.Ceil(ceiling))),
		targetRTT:   targetRTT,
		ceiling:     ceiling,
		emaRTT:      targetRTT,
		currentRate: ceiling,
	}
}

// Wait blocks until the next fetch may start or ctx is done.
// It is safe to call Wait from multiple goroutines concurrently.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Observe records the latency of a completed fetch and adjusts the rate.
func (t *Throttle) Observe(rtt time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.emaRTT = time.Duration(emaAlpha*float64(rtt) + (1-emaAlpha)*float64(t.emaRTT))
	if t.emaRTT <= 0 {
		t.emaRTT = time.Nanosecond
	}

	ratio := float64(t.targetRTT) / float64(t.emaRTT)

	var next float64
	if ratio < 1 {
		next = math.Max(t.currentRate*ratio, t.currentRate*backoffFactor)
	} else {
		next = t.currentRate * recoveryFactor
	}
	next = math.Min(math.Max(next, minRate), t.ceiling)

	if math.Abs(next-t.currentRate) > 0.1 {
		t.currentRate = next
		t.limiter.SetLimit(rate.Limit(next))
		t.limiter.SetBurst(int(math.Ceil(next)))
	}
}

// Rate returns the current rate in requests per second.
func (t *Throttle) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentRate
}
