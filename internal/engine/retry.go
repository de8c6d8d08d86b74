package engine

import (
	"context"
	stderrs "errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/aws/smithy-go"

	"github.com/groundwork-io/groundwork/internal/errors"
)

// DefaultTimeout is the per-descriptor timeout for a remote call.
const DefaultTimeout = 2 * time.Minute

// DefaultRetryMax is the retry ceiling for transient remote errors.
const DefaultRetryMax = 4

// RetryPolicy bounds the retry behavior for transient control-plane
// errors: throttling and read-after-write consistency gaps.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns the policy used for creation calls.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: DefaultRetryMax,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   15 * time.Second,
	}
}

// RetryWithBackoff executes fn with exponential backoff and jitter,
// retrying only while shouldRetry accepts the error. After exhausting
// the ceiling it returns the last error wrapped with the retry count.
func RetryWithBackoff(ctx context.Context, policy *RetryPolicy, fn func() error, shouldRetry func(error) bool) error {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !shouldRetry(lastErr) {
			return lastErr
		}

		if attempt < policy.MaxRetries {
			delay := backoffDelay(attempt, policy.BaseDelay, policy.MaxDelay)
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return errors.Wrap(lastErr, errors.CodeTransientRemote,
		fmt.Sprintf("max retries (%d) exceeded", policy.MaxRetries))
}

// backoffDelay returns exponential backoff with full jitter.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	backoff := float64(base) * math.Pow(2, float64(attempt))
	if backoff > float64(max) {
		backoff = float64(max)
	}
	return time.Duration(rand.Float64() * backoff)
}

// transientAPICodes are smithy error codes that indicate throttling or
// an eventual-consistency gap rather than a persistent failure.
var transientAPICodes = map[string]bool{
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"TooManyRequestsException":               true,
	"RequestLimitExceeded":                   true,
	"ProvisionedThroughputExceededException": true,
	"ServiceUnavailable":                     true,
	"ServiceUnavailableException":            true,
	"SlowDown":                               true,
	"RequestTimeout":                         true,
	"InternalError":                          true,
	"InternalFailure":                        true,
}

// IsTransient reports whether an error is worth retrying. Smithy API
// error codes are checked first; the message scan catches transport
// failures that never reach the service.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ae smithy.APIError
	if stderrs.As(err, &ae) {
		if transientAPICodes[ae.ErrorCode()] {
			return true
		}
		// A freshly created role takes a few seconds to become
		// assumable; the service rejects it as an invalid parameter
		// until then.
		return ae.ErrorCode() == "InvalidParameterValueException" &&
			strings.Contains(strings.ToLower(ae.ErrorMessage()), "cannot be assumed")
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"throttl",
		"rate exceed",
		"too many requests",
		"service unavailable",
		"connection reset",
		"connection refused",
		"i/o timeout",
		"tls handshake",
		"temporary failure",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
