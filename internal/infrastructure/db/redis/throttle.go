package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	throttleWindow = 10 * time.Minute
	maxSends       = 3
)

// throttleClient is the slice of the go-redis API the throttle uses.
type throttleClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// OTPThrottle caps how many verification codes can be requested per email
// inside a rolling window, backed by a Redis counter.
// Key format: otp:sends:<email>
type OTPThrottle struct {
	client throttleClient
}

// NewOTPThrottle creates an OTPThrottle wrapping the given Redis client.
func NewOTPThrottle(client *redis.Client) *OTPThrottle {
	return &OTPThrottle{client: client}
}

// Allow increments the send counter for the email and reports whether this
// request stays within the limit.
//
// EXPIRE NX runs on every call, not only the first: if the process dies
// between INCR and EXPIRE on a window's first send, the counter is left
// without a TTL and would otherwise throttle the email forever. NX sets the
// window on whichever request finds the key bare, so the lockout is always
// bounded by throttleWindow.
func (t *OTPThrottle) Allow(ctx context.Context, email string) (bool, error) {
	key := t.key(email)

	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("otp throttle: %w", err)
	}
	if err := t.client.ExpireNX(ctx, key, throttleWindow).Err(); err != nil {
		return false, fmt.Errorf("otp throttle expire: %w", err)
	}

	return n <= maxSends, nil
}

func (t *OTPThrottle) key(email string) string {
	return "otp:sends:" + email
}
