package middleware

import (
	"strings"
	"time"

	"messaging_backend/internal/auth"
	"messaging_backend/internal/config"
	"messaging_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// Clock returns the current time. Tests inject a fixed one.
type Clock func() time.Time

// Pipeline is the ordered request interceptor chain: request logger, time
// window gate, rate limiter, role authorizer. Any stage may end the request;
// later stages then never run.
type Pipeline struct {
	Logger     gin.HandlerFunc
	TimeWindow gin.HandlerFunc
	RateLimit  *RateLimiter
	Authorizer gin.HandlerFunc
}

// NewPipeline builds the chain from configuration. now may be nil.
func NewPipeline(cfg config.PipelineConfig, verifier auth.TokenVerifier, sink logger.RequestLog, now Clock) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		Logger: RequestLogger(sink, now),
		TimeWindow: TimeWindowGate(TimeWindowConfig{
			StartHour: cfg.StartHour,
			EndHour:   cfg.EndHour,
			Prefixes:  cfg.GovernedPrefixes,
			Verifier:  verifier,
			Sink:      sink,
			Now:       now,
		}),
		RateLimit: NewRateLimiter(RateLimitConfig{
			Limit:    cfg.RateLimit,
			Window:   time.Duration(cfg.RateWindowSeconds) * time.Second,
			Prefixes: cfg.GovernedPrefixes,
			Sink:     sink,
			Now:      now,
		}),
		Authorizer: RoleAuthorizer(RoleAuthorizerConfig{
			Verifier: verifier,
			Prefixes: cfg.ProtectedPrefixes,
			Allowed:  auth.NewRoleSet(cfg.AllowedRoles...),
		}),
	}
}

// Handlers returns the stages outermost first.
func (p *Pipeline) Handlers() []gin.HandlerFunc {
	return []gin.HandlerFunc{p.Logger, p.TimeWindow, p.RateLimit.Middleware(), p.Authorizer}
}

func governed(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
