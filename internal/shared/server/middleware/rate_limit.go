package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"ats-expert/internal/shared/server/respond"
)

const (
	defaultRateLimitGroup = "DEFAULT"

	// idle buckets are dropped once the table grows past sweepThreshold
	bucketIdleTTL  = 10 * time.Minute
	sweepThreshold = 4096
)

// RateLimitRule is a token bucket: Rate tokens per second up to Burst.
// A rule with a non-positive Rate or Burst never limits.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig maps requests to rule groups. Requests in a group with no
// rule pass through. OnLimit writes the 429 body; the JSON error envelope is
// used when it is nil.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
	OnLimit      func(c *gin.Context, retryAfter time.Duration)
}

// RateLimiter keeps one token bucket per client and group.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		now:     now,
	}
}

// RateLimit rejects requests over their group's rule with a 429.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = RateLimitedJSON
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}

		allowed, retryAfter := cfg.Limiter.Allow(c.ClientIP()+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}

		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		c.Header("Retry-After", strconv.FormatInt(RetryAfterSeconds(retryAfter), 10))
		c.Set(FailureKey, RateLimitedCode)
		cfg.OnLimit(c, retryAfter)
		c.Abort()
	}
}

// RateLimitedCode is the error code and failure reason of a limited request.
const RateLimitedCode = "rate_limited"

// RateLimitedMessage is shown to clients over their limit.
const RateLimitedMessage = "Too many assessments, please wait before trying again."

// RetryAfterSeconds rounds a wait up to whole seconds.
func RetryAfterSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}

// RateLimitedJSON writes the 429 error envelope.
func RateLimitedJSON(c *gin.Context, retryAfter time.Duration) {
	respond.Error(c, http.StatusTooManyRequests, RateLimitedCode, RateLimitedMessage, gin.H{
		"retryAfterMs": retryAfter.Milliseconds(),
	})
}

// Allow takes a token for key. When none is available it reports how long
// until one will be.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= sweepThreshold {
			l.sweep(now)
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *RateLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > bucketIdleTTL {
			delete(l.buckets, key)
		}
	}
}
