package server

import (
	"context"
	"testing"
	"time"

	"vidtube/internal/testsupport/redisstub"
)

func TestRedisStoreFixedWindow(t *testing.T) {
	stub, err := redisstub.Start(redisstub.Options{})
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	defer stub.Close()

	store := newRedisStore(stub.Addr(), "", time.Second)
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := store.Allow(ctx, "vidtube:login:10.0.0.1", 2, time.Minute)
		if err != nil {
			t.Fatalf("Allow returned error: %v", err)
		}
		if !allowed {
			t.Fatalf("attempt %d should be within the limit", i+1)
		}
	}

	allowed, retryAfter, err := store.Allow(ctx, "vidtube:login:10.0.0.1", 2, time.Minute)
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if allowed {
		t.Fatal("third attempt must be throttled")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("unexpected retry-after %v", retryAfter)
	}
	if got := stub.Counter("vidtube:login:10.0.0.1"); got != 3 {
		t.Fatalf("expected 3 increments recorded, got %d", got)
	}

	// Other keys keep their own window.
	allowed, _, err = store.Allow(ctx, "vidtube:login:10.0.0.2", 2, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("fresh key should be allowed: allowed=%v err=%v", allowed, err)
	}
}

func TestRedisStoreAuthentication(t *testing.T) {
	stub, err := redisstub.Start(redisstub.Options{Password: "sekret"})
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	defer stub.Close()

	store := newRedisStore(stub.Addr(), "sekret", time.Second)
	defer store.Close()
	allowed, _, err := store.Allow(context.Background(), "k", 1, time.Minute)
	if err != nil {
		t.Fatalf("Allow with password returned error: %v", err)
	}
	if !allowed {
		t.Fatal("first attempt should pass")
	}
}

func TestRateLimiterUsesRedisWhenConfigured(t *testing.T) {
	stub, err := redisstub.Start(redisstub.Options{})
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	defer stub.Close()

	rl := newRateLimiter(RateLimitConfig{
		LoginLimit:  1,
		LoginWindow: time.Minute,
		RedisAddr:   stub.Addr(),
	})
	defer rl.Close()
	ctx := context.Background()

	allowed, _, err := rl.AllowLogin(ctx, "10.0.0.1")
	if err != nil || !allowed {
		t.Fatalf("first attempt: allowed=%v err=%v", allowed, err)
	}
	allowed, _, err = rl.AllowLogin(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("AllowLogin returned error: %v", err)
	}
	if allowed {
		t.Fatal("second attempt must hit the shared counter")
	}
	if got := stub.Counter("vidtube:login:10.0.0.1"); got != 2 {
		t.Fatalf("expected namespaced key in redis, counter %d", got)
	}
}
