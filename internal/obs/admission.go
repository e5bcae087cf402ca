package obs

import (
	"fmt"
	"sync"
	"time"
)

// tokenBucket throttles how often a single caller may request admission:
// up to maxTokens requests per refillPeriod, refilling refillRate tokens
// each period.
type tokenBucket struct {
	mu           sync.Mutex
	tokens       int
	maxTokens    int
	refillRate   int
	lastRefill   time.Time
	refillPeriod time.Duration
}

func newTokenBucket(maxTokens, refillRate int, refillPeriod time.Duration) *tokenBucket {
	return &tokenBucket{
		tokens:       maxTokens,
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		lastRefill:   time.Now(),
		refillPeriod: refillPeriod,
	}
}

func (b *tokenBucket) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if refillCount := int(now.Sub(b.lastRefill) / b.refillPeriod); refillCount > 0 {
		b.tokens += refillCount * b.refillRate
		if b.tokens > b.maxTokens {
			b.tokens = b.maxTokens
		}
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

func (b *tokenBucket) remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

func (b *tokenBucket) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = b.maxTokens
	b.lastRefill = time.Now()
}

// ProofAdmission gates GenerateProof calls on two axes a plain per-caller
// token bucket cannot see on its own: a global semaphore bounding how many
// Prove calls — each a multi-second Groth16 witness solve — run at once,
// sized from Config.MaxConcurrency, and a per-caller token bucket
// throttling how often any one caller may even queue for a slot. A caller
// that clears its own bucket but finds every slot taken waits up to
// Config.TimeoutSeconds before being rejected, which protects the
// service's CPU budget from a burst of distinct callers that no
// per-caller limiter alone would catch.
type ProofAdmission struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket

	maxTokens    int
	refillRate   int
	refillPeriod time.Duration

	slots   chan struct{}
	timeout time.Duration
}

// NewProofAdmission builds an admission gate sized from cfg: per-caller
// bucket capacity/refill from RateLimitBurst/RateLimitPerSecond, and the
// concurrency slot count from MaxConcurrency.
func NewProofAdmission(cfg *Config) *ProofAdmission {
	return &ProofAdmission{
		buckets:      make(map[string]*tokenBucket),
		maxTokens:    cfg.RateLimitBurst,
		refillRate:   cfg.RateLimitPerSecond,
		refillPeriod: time.Second,
		slots:        make(chan struct{}, cfg.MaxConcurrency),
		timeout:      time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Admit checks callerID's request-rate bucket, then blocks for a free
// concurrency slot up to the configured timeout. On success it returns a
// release func the caller must invoke, typically via defer, once its
// Prove call returns.
func (a *ProofAdmission) Admit(callerID string) (release func(), err error) {
	a.mu.Lock()
	bucket, ok := a.buckets[callerID]
	if !ok {
		bucket = newTokenBucket(a.maxTokens, a.refillRate, a.refillPeriod)
		a.buckets[callerID] = bucket
	}
	a.mu.Unlock()

	if !bucket.take() {
		return nil, fmt.Errorf("obs: caller %q exceeded its proof-request rate", callerID)
	}

	select {
	case a.slots <- struct{}{}:
		return func() { <-a.slots }, nil
	case <-time.After(a.timeout):
		return nil, fmt.Errorf("obs: caller %q timed out waiting for a free proof-generation slot", callerID)
	}
}

// Remaining returns callerID's current token count, for diagnostics.
func (a *ProofAdmission) Remaining(callerID string) int {
	a.mu.Lock()
	bucket, ok := a.buckets[callerID]
	a.mu.Unlock()
	if !ok {
		return a.maxTokens
	}
	return bucket.remaining()
}

// Reset restores callerID's bucket to full, without affecting concurrency
// slots currently in use.
func (a *ProofAdmission) Reset(callerID string) {
	a.mu.Lock()
	bucket, ok := a.buckets[callerID]
	a.mu.Unlock()
	if ok {
		bucket.reset()
	}
}
