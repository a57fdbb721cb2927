package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures   = 10
	defaultFailureWindow = 15 * time.Minute
)

// LoginThrottle counts failed logins per handle in Redis.
// Key format: login_failures:<lower-cased handle>
// Every failure pushes the key expiry out by the window, so a handle stays
// blocked until it has been quiet for a full window.
type LoginThrottle struct {
	client      *redis.Client
	maxFailures int64
	window      time.Duration
}

// NewLoginThrottle wraps client. Non-positive limits fall back to 10
// failures per 15 minutes.
func NewLoginThrottle(client *redis.Client, maxFailures int, window time.Duration) *LoginThrottle {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if window <= 0 {
		window = defaultFailureWindow
	}
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// Blocked reports whether login has reached the failure limit.
func (t *LoginThrottle) Blocked(ctx context.Context, login string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(login)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n >= t.maxFailures, nil
}

// Failure records one failed attempt for login.
func (t *LoginThrottle) Failure(ctx context.Context, login string) error {
	key := t.key(login)
	_, err := t.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, key)
		p.Expire(ctx, key, t.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	return nil
}

// Reset clears the failure count after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, login string) error {
	return t.client.Del(ctx, t.key(login)).Err()
}

func (t *LoginThrottle) key(login string) string {
	return "login_failures:" + strings.ToLower(strings.TrimSpace(login))
}
