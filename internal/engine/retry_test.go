package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/groundwork-io/groundwork/internal/errors"
)

func fastPolicy() *RetryPolicy {
	return &RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryWithBackoff_TransientThenSuccess(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastPolicy(), func() error {
		calls++
		if calls < 3 {
			return &smithy.GenericAPIError{Code: "ThrottlingException"}
		}
		return nil
	}, IsTransient)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_NonTransientReturnsImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("access denied")
	err := RetryWithBackoff(context.Background(), fastPolicy(), func() error {
		calls++
		return boom
	}, IsTransient)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_Exhaustion(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastPolicy(), func() error {
		calls++
		return &smithy.GenericAPIError{Code: "ThrottlingException"}
	}, IsTransient)

	require.Error(t, err)
	assert.Equal(t, 4, calls) // initial attempt + 3 retries
	assert.Contains(t, err.Error(), "max retries")
	assert.True(t, gwerrors.Is(err, gwerrors.CodeTransientRemote))
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, fastPolicy(), func() error {
		return &smithy.GenericAPIError{Code: "ThrottlingException"}
	}, IsTransient)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(&smithy.GenericAPIError{Code: "ThrottlingException"}))
	assert.True(t, IsTransient(&smithy.GenericAPIError{Code: "ServiceUnavailable"}))
	assert.False(t, IsTransient(&smithy.GenericAPIError{Code: "AccessDeniedException"}))

	// Role propagation gap right after IAM creation.
	assert.True(t, IsTransient(&smithy.GenericAPIError{
		Code:    "InvalidParameterValueException",
		Message: "The role defined for the function cannot be assumed by Lambda.",
	}))
	assert.False(t, IsTransient(&smithy.GenericAPIError{
		Code:    "InvalidParameterValueException",
		Message: "Unzipped size must be smaller than the limit.",
	}))

	// Transport errors never carry a smithy code.
	assert.True(t, IsTransient(errors.New("dial tcp: connection reset by peer")))
	assert.True(t, IsTransient(errors.New("read tcp: i/o timeout")))
	assert.False(t, IsTransient(errors.New("bucket name already taken")))
}

func TestBackoffDelay_Bounded(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := backoffDelay(attempt, 500*time.Millisecond, 15*time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 15*time.Second)
	}
}
