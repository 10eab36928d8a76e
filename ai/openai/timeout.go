package openai

import (
	"context"
	"time"
)

// callContext bounds a provider call with the configured timeout. A zero
// timeout leaves the caller's context untouched.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
