package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/errors"
)

// WithTimeout runs fn with a context cancelled after timeout and returns as
// soon as the deadline passes, even if fn ignores its context. The error
// then matches both apperrors.ErrTimeout and context.DeadlineExceeded. A
// non-positive timeout runs fn on ctx directly.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeoutCause(ctx, timeout, apperrors.ErrTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if !errors.Is(context.Cause(ctx), apperrors.ErrTimeout) {
			return fmt.Errorf("%s: %w", name, context.Cause(ctx))
		}
		return fmt.Errorf("%s: %w after %v: %w", name, apperrors.ErrTimeout, timeout, context.DeadlineExceeded)
	}
}
