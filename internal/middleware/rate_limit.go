package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"messaging_backend/internal/logger"
	"messaging_backend/internal/metrics"
	"messaging_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type RateLimitConfig struct {
	Limit    int
	Window   time.Duration
	Prefixes []string
	Sink     logger.RequestLog
	Now      Clock
}

// RateLimiter is a sliding-window limiter keyed by client IP. It only counts
// POST requests to governed paths.
type RateLimiter struct {
	mu   sync.Mutex
	hits map[string][]time.Time

	limit    int
	window   time.Duration
	prefixes []string
	sink     logger.RequestLog
	now      Clock
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RateLimiter{
		hits:     make(map[string][]time.Time),
		limit:    cfg.Limit,
		window:   cfg.Window,
		prefixes: cfg.Prefixes,
		sink:     cfg.Sink,
		now:      cfg.Now,
	}
}

// Allow records a hit for ip at now unless the window is already full.
// Eviction, check and append happen under one lock.
func (l *RateLimiter) Allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	queue := evict(l.hits[ip], now.Add(-l.window))
	if len(queue) >= l.limit {
		l.hits[ip] = queue
		return false
	}
	l.hits[ip] = append(queue, now)
	return true
}

// evict drops timestamps older than cutoff; queue is oldest first.
func evict(queue []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(queue) && queue[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return queue
	}
	return append(queue[:0], queue[i:]...)
}

// Sweep removes keys whose queue has fully expired and returns how many.
func (l *RateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	removed := 0
	for ip, queue := range l.hits {
		if queue = evict(queue, cutoff); len(queue) == 0 {
			delete(l.hits, ip)
			removed++
		} else {
			l.hits[ip] = queue
		}
	}
	return removed
}

// Keys reports how many clients are tracked.
func (l *RateLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := int(l.window / time.Second)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodPost || !governed(path, l.prefixes) {
			c.Next()
			return
		}

		ip := ClientIP(c.Request)
		now := l.now()
		if l.Allow(ip, now) {
			c.Next()
			return
		}

		if l.sink != nil {
			l.sink.RateLimited(now, ip, path)
		}
		metrics.PipelineBlocked.WithLabelValues("rate_limit").Inc()
		logger.CtxInfo(c.Request.Context(), "rate limit exceeded", "ip", ip, "path", path)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		apperrors.HandleError(c, apperrors.ErrRateLimited(retryAfter))
	}
}

// ClientIP is the first X-Forwarded-For entry, else the peer host.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
