// Copyright 2026 OpenClerk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package retry provides a small bounded-attempt retry helper with
// exponential backoff, used for transient failures against AI services.
package retry

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second
)

// Policy describes how an operation is retried.
// The zero value is usable and applies the defaults.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	// Defaults to 3.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt. Each subsequent
	// delay doubles, capped at MaxDelay. Defaults to 500ms.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay. Defaults to 8s.
	MaxDelay time.Duration

	// Retryable decides whether an error is worth another attempt.
	// If nil, every error is retried.
	Retryable func(error) bool

	// Sleeper overrides how delays are performed (useful for tests).
	// If nil, a context-aware timer sleep is used.
	Sleeper func(ctx context.Context, d time.Duration) error
}

func (p Policy) attempts() int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return defaultMaxAttempts
}

func (p Policy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	d := base
	for i := 1; i < attempt; i++ {
		if d > maxDelay/2 {
			return maxDelay
		}
		d *= 2
	}
	return d
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleeper != nil {
		return p.Sleeper(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn until it succeeds, the policy is exhausted, or the context is
// canceled. The last error is returned, annotated with the attempt count
// when all attempts fail.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if err := p.sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
