// Package retry waits out a database that is still coming up when a store is opened.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loykin/sqlpatch/internal/common"
)

// Config is the backoff policy for opening a store.
type Config struct {
	Attempts  int           // tries after the first one
	Delay     time.Duration // first pause, doubled after every failure
	MaxDelay  time.Duration
	Transient []string // lowercase error fragments worth another try
}

// Default is used when a store.Config leaves Retry nil.
func Default() *Config {
	return &Config{
		Attempts: 3,
		Delay:    100 * time.Millisecond,
		MaxDelay: 5 * time.Second,
		Transient: []string{
			"connection refused",
			"no such host",
			"the database system is starting up",
			"database is locked",
		},
	}
}

// NoRetry runs an operation exactly once.
func NoRetry() *Config {
	return &Config{}
}

func (c *Config) transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range c.Transient {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// pause is the wait after the n-th failed try, counting from zero.
func (c *Config) pause(n int) time.Duration {
	if n >= 32 {
		return c.MaxDelay
	}
	d := c.Delay << uint(n)
	if c.MaxDelay > 0 && (d > c.MaxDelay || d < 0) {
		return c.MaxDelay
	}
	return d
}

// Do runs fn until it succeeds, fails with a non-transient error or
// runs out of attempts.
func Do(ctx context.Context, c *Config, fn func() error) error {
	_, err := Value(ctx, c, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Value is Do for operations that produce a result. On failure the zero
// value is returned.
func Value[T any](ctx context.Context, c *Config, fn func() (T, error)) (T, error) {
	if c == nil {
		c = Default()
	}
	log := common.GetLogger().WithComponent("store-retry")

	var zero T
	for try := 0; ; try++ {
		v, err := fn()
		if err == nil {
			if try > 0 {
				log.Info("store reachable", "tries", try+1)
			}
			return v, nil
		}
		if !c.transient(err) || c.Attempts == 0 {
			return zero, err
		}
		if try >= c.Attempts {
			log.Error("giving up on store", "error", err, "tries", try+1)
			return zero, fmt.Errorf("store unavailable after %d tries: %w", try+1, err)
		}

		wait := c.pause(try)
		log.Warn("store not ready, waiting", "error", err, "try", try+1, "wait", wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("store retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
