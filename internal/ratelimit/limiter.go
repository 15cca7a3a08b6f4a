package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config is one endpoint class's window. Classes are independent: the same
// identifier can be exhausted for issuance while still allowed to check an
// existing code.
type Config struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

var (
	EmailSubmit   = Config{Name: "email_submit", MaxRequests: 5, Window: time.Minute}
	SurveySubmit  = Config{Name: "survey_submit", MaxRequests: 10, Window: time.Minute}
	OptIn         = Config{Name: "opt_in", MaxRequests: 10, Window: time.Minute}
	CouponIssue   = Config{Name: "coupon_issue", MaxRequests: 5, Window: time.Minute}
	CouponCheck   = Config{Name: "coupon_check", MaxRequests: 30, Window: time.Minute}
	General       = Config{Name: "general", MaxRequests: 60, Window: time.Minute}
	AccountChange = Config{Name: "account_change", MaxRequests: 5, Window: time.Hour}
)

type Result struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// CounterStore is the shared counting backend with TTL-based eviction.
type CounterStore interface {
	Get(ctx context.Context, key string) (count int64, found bool, err error)
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error
	// Increment bumps the counter and refreshes its expiry.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Limiter counts requests per identifier in fixed windows. It fails open:
// rate limiting is defense in depth, so an unreachable or unconfigured
// counting store allows the request and logs a warning rather than
// blocking the visitor flow.
type Limiter struct {
	store  CounterStore
	logger *zap.Logger
	now    func() time.Time
}

func NewLimiter(store CounterStore, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Limiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (l *Limiter) Check(ctx context.Context, identifier string, cfg Config) Result {
	now := l.now()
	allowAll := Result{
		Allowed:   true,
		Remaining: cfg.MaxRequests - 1,
		ResetAt:   now.Add(cfg.Window),
	}

	if l == nil || l.store == nil {
		return allowAll
	}
	if cfg.MaxRequests <= 0 || cfg.Window <= 0 {
		return allowAll
	}

	key := "ratelimit:" + cfg.Name + ":" + identifier

	count, found, err := l.store.Get(ctx, key)
	if err != nil {
		l.warnFailOpen(cfg, identifier, err)
		return allowAll
	}

	if !found {
		if err := l.store.Set(ctx, key, 1, cfg.Window); err != nil {
			l.warnFailOpen(cfg, identifier, err)
		}
		return allowAll
	}

	if count >= int64(cfg.MaxRequests) {
		resetAt := now.Add(cfg.Window)
		if ttl, ttlErr := l.store.TTL(ctx, key); ttlErr == nil && ttl > 0 {
			resetAt = now.Add(ttl)
		}
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	newCount, err := l.store.Increment(ctx, key, cfg.Window)
	if err != nil {
		l.warnFailOpen(cfg, identifier, err)
		return allowAll
	}

	remaining := cfg.MaxRequests - int(newCount)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   true,
		Remaining: remaining,
		ResetAt:   now.Add(cfg.Window),
	}
}

func (l *Limiter) warnFailOpen(cfg Config, identifier string, err error) {
	l.logger.Warn("rate limit store unavailable, failing open",
		zap.String("class", cfg.Name),
		zap.String("identifier", identifier),
		zap.Error(err),
	)
}
