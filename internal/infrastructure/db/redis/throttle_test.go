package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeThrottleClient struct {
	counts    map[string]int64
	ttls      map[string]time.Duration
	incrErr   error
	expireErr error
}

func newFakeThrottleClient() *fakeThrottleClient {
	return &fakeThrottleClient{
		counts: make(map[string]int64),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeThrottleClient) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.incrErr != nil {
		return redis.NewIntResult(0, f.incrErr)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeThrottleClient) ExpireNX(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if f.expireErr != nil {
		return redis.NewBoolResult(false, f.expireErr)
	}
	if _, set := f.ttls[key]; set {
		return redis.NewBoolResult(false, nil)
	}
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestOTPThrottle_Allow_WithinLimit(t *testing.T) {
	client := newFakeThrottleClient()
	throttle := &OTPThrottle{client: client}

	for i := 0; i < maxSends; i++ {
		ok, err := throttle.Allow(context.Background(), "alice@x.com")
		if err != nil {
			t.Fatalf("send %d: unexpected error: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("send %d should be allowed", i+1)
		}
	}

	ok, err := throttle.Allow(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("send %d should be throttled", maxSends+1)
	}

	if ttl := client.ttls[throttle.key("alice@x.com")]; ttl != throttleWindow {
		t.Fatalf("expected window ttl %v, got %v", throttleWindow, ttl)
	}
}

func TestOTPThrottle_Allow_PerEmailCounters(t *testing.T) {
	client := newFakeThrottleClient()
	throttle := &OTPThrottle{client: client}

	for i := 0; i < maxSends+1; i++ {
		_, _ = throttle.Allow(context.Background(), "alice@x.com")
	}

	ok, err := throttle.Allow(context.Background(), "bob@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("other emails must not share the counter")
	}
}

func TestOTPThrottle_Allow_HealsCounterWithoutTTL(t *testing.T) {
	client := newFakeThrottleClient()
	throttle := &OTPThrottle{client: client}
	key := throttle.key("alice@x.com")

	// A crash between INCR and EXPIRE leaves the counter with no TTL. The
	// next call must put a window on it so the throttle cannot lock the
	// email out permanently.
	client.counts[key] = maxSends + 2

	ok, err := throttle.Allow(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("over-limit counter should still throttle")
	}
	if ttl, set := client.ttls[key]; !set || ttl != throttleWindow {
		t.Fatalf("stale counter must receive a ttl, got set=%v ttl=%v", set, ttl)
	}
}

func TestOTPThrottle_Allow_Errors(t *testing.T) {
	client := newFakeThrottleClient()
	client.incrErr = errors.New("connection refused")
	throttle := &OTPThrottle{client: client}

	if _, err := throttle.Allow(context.Background(), "alice@x.com"); err == nil {
		t.Fatalf("expected incr error to surface")
	}

	client = newFakeThrottleClient()
	client.expireErr = errors.New("connection refused")
	throttle = &OTPThrottle{client: client}

	if _, err := throttle.Allow(context.Background(), "alice@x.com"); err == nil {
		t.Fatalf("expected expire error to surface")
	}
}
