package reindex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_Success(t *testing.T) {
	attempts := 0
	operation := func() error {
		attempts++
		return nil
	}

	err := RetryWithBackoff(context.Background(), operation, 3, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := RetryWithBackoff(context.Background(), operation, 5, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestRetryWithBackoff_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	operation := func() error {
		attempts++
		return expectedErr
	}

	err := RetryWithBackoff(context.Background(), operation, 3, 10*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, expectedErr, err, "should return the original error")
	assert.Equal(t, 3, attempts, "should exhaust all attempts")
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.Equal(t, ErrInvalidMaxAttempts, err)
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	operation := func() error {
		attempts++
		cancel()
		return errors.New("failing")
	}

	err := RetryWithBackoff(ctx, operation, 5, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "should not retry after cancellation")
}
