package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeStore evicts keys whose TTL has elapsed against its own clock, so
// tests can drive window expiry by advancing `now`.
type fakeStore struct {
	counts   map[string]int64
	expiries map[string]time.Time
	now      func() time.Time
	fail     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		counts:   make(map[string]int64),
		expiries: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (f *fakeStore) evictExpired(key string) {
	expiry, ok := f.expiries[key]
	if ok && !f.now().Before(expiry) {
		delete(f.counts, key)
		delete(f.expiries, key)
	}
}

func (f *fakeStore) Get(_ context.Context, key string) (int64, bool, error) {
	if f.fail {
		return 0, false, errors.New("store down")
	}
	f.evictExpired(key)
	count, ok := f.counts[key]
	return count, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value int64, ttl time.Duration) error {
	if f.fail {
		return errors.New("store down")
	}
	f.counts[key] = value
	f.expiries[key] = f.now().Add(ttl)
	return nil
}

func (f *fakeStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	if f.fail {
		return 0, errors.New("store down")
	}
	f.evictExpired(key)
	f.counts[key]++
	f.expiries[key] = f.now().Add(ttl)
	return f.counts[key], nil
}

func (f *fakeStore) TTL(_ context.Context, key string) (time.Duration, error) {
	if f.fail {
		return 0, errors.New("store down")
	}
	f.evictExpired(key)
	expiry, ok := f.expiries[key]
	if !ok {
		return 0, nil
	}
	return expiry.Sub(f.now()), nil
}

func TestLimiterCountsWithinWindow(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	limiter := NewLimiter(store, nil)
	cfg := Config{Name: "test", MaxRequests: 3, Window: 10 * time.Second}
	ctx := context.Background()

	first := limiter.Check(ctx, "email:a@example.com", cfg)
	if !first.Allowed || first.Remaining != 2 {
		t.Fatalf("first request: got %+v", first)
	}

	second := limiter.Check(ctx, "email:a@example.com", cfg)
	if !second.Allowed || second.Remaining != 1 {
		t.Fatalf("second request: got %+v", second)
	}

	third := limiter.Check(ctx, "email:a@example.com", cfg)
	if !third.Allowed || third.Remaining != 0 {
		t.Fatalf("third request: got %+v", third)
	}

	fourth := limiter.Check(ctx, "email:a@example.com", cfg)
	if fourth.Allowed {
		t.Fatalf("fourth request should be denied, got %+v", fourth)
	}
	if fourth.ResetAt.IsZero() {
		t.Fatal("denied result must carry a reset time")
	}
}

func TestLimiterResetsAfterWindowElapses(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store := newFakeStore()
	store.now = clock
	limiter := NewLimiter(store, nil)
	limiter.now = clock

	cfg := Config{Name: "test", MaxRequests: 3, Window: 10 * time.Second}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if result := limiter.Check(ctx, "email:a@example.com", cfg); !result.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	denied := limiter.Check(ctx, "email:a@example.com", cfg)
	if denied.Allowed {
		t.Fatalf("window should be exhausted, got %+v", denied)
	}

	current = current.Add(cfg.Window + time.Second)

	fresh := limiter.Check(ctx, "email:a@example.com", cfg)
	if !fresh.Allowed || fresh.Remaining != cfg.MaxRequests-1 {
		t.Fatalf("post-expiry request should start a fresh window, got %+v", fresh)
	}
}

func TestLimiterClassesAreIndependent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	limiter := NewLimiter(store, nil)
	ctx := context.Background()

	issue := Config{Name: "coupon_issue", MaxRequests: 1, Window: time.Minute}
	check := Config{Name: "coupon_check", MaxRequests: 5, Window: time.Minute}

	limiter.Check(ctx, "email:a@example.com", issue)
	denied := limiter.Check(ctx, "email:a@example.com", issue)
	if denied.Allowed {
		t.Fatal("issue class should be exhausted")
	}

	allowed := limiter.Check(ctx, "email:a@example.com", check)
	if !allowed.Allowed {
		t.Fatal("check class must not share the issue class counter")
	}
}

func TestLimiterIdentifiersAreIndependent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	limiter := NewLimiter(store, nil)
	cfg := Config{Name: "test", MaxRequests: 1, Window: time.Minute}
	ctx := context.Background()

	limiter.Check(ctx, "email:a@example.com", cfg)
	if limiter.Check(ctx, "email:a@example.com", cfg).Allowed {
		t.Fatal("first identifier should be exhausted")
	}
	if !limiter.Check(ctx, "email:b@example.com", cfg).Allowed {
		t.Fatal("second identifier must have its own window")
	}
}

func TestLimiterFailsOpenOnStoreErrors(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.fail = true
	limiter := NewLimiter(store, nil)
	cfg := Config{Name: "test", MaxRequests: 1, Window: time.Minute}

	for i := 0; i < 5; i++ {
		result := limiter.Check(context.Background(), "ip:10.0.0.1", cfg)
		if !result.Allowed {
			t.Fatalf("request %d should be allowed when the store is down", i)
		}
	}
}

func TestLimiterWithoutStoreAllowsEverything(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(nil, nil)
	result := limiter.Check(context.Background(), "ip:10.0.0.1", General)
	if !result.Allowed {
		t.Fatal("limiter without a store must allow")
	}
}
