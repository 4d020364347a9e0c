package harness

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errQuota     = errors.New("Error 429: resource has been exhausted (e.g. check quota)")
	errTransient = errors.New("connection reset by peer")
)

type httpStatusErr struct{ code int }

func (e httpStatusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e httpStatusErr) HTTPStatus() int { return e.code }

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{Provider: "test", MaxAttempts: maxAttempts, QuotaPause: time.Nanosecond}
}

func TestRetryPolicy_SucceedsFirstTry(t *testing.T) {
	calls := 0
	report, err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, report.Consumed)
	require.Len(t, report.Attempts, 1)
	assert.NoError(t, report.Attempts[0].Err)
}

func TestRetryPolicy_SucceedsOnLastPermittedAttempt(t *testing.T) {
	const maxAttempts = 5
	calls := 0

	report, err := fastPolicy(maxAttempts).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < maxAttempts {
			return errTransient
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, maxAttempts, report.Consumed)
	assert.Len(t, report.Attempts, maxAttempts)
	for _, attempt := range report.Attempts[:maxAttempts-1] {
		assert.Equal(t, ClassTransient, attempt.Class)
	}
}

func TestRetryPolicy_Exhausted(t *testing.T) {
	calls := 0
	report, err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	}, nil)

	var exhausted *ExhaustedRetriesError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "test", exhausted.Provider)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, report.Consumed)
}

func TestRetryPolicy_QuotaDoesNotConsumeBudget(t *testing.T) {
	const maxAttempts = 2
	const limit = 12
	signals := 0

	report, err := fastPolicy(maxAttempts).Do(context.Background(), func(context.Context) error {
		return errQuota
	}, func(error) error {
		signals++
		if signals > limit {
			return errors.New("stop")
		}
		return nil
	})

	require.EqualError(t, err, "stop")
	assert.Equal(t, limit+1, signals)
	assert.Equal(t, limit+1, report.QuotaSignals)
	assert.Zero(t, report.Consumed, "quota retries never charge the attempt budget")
	for _, attempt := range report.Attempts {
		assert.Equal(t, ClassQuota, attempt.Class)
	}
}

func TestRetryPolicy_QuotaWithoutHandlerIsTransient(t *testing.T) {
	calls := 0
	_, err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return errQuota
	}, nil)

	var exhausted *ExhaustedRetriesError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_MixedErrors(t *testing.T) {
	script := []error{errQuota, errTransient, errQuota, nil}
	calls := 0

	report, err := fastPolicy(2).Do(context.Background(), func(context.Context) error {
		err := script[calls]
		calls++
		return err
	}, func(error) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 2, report.Consumed)
	assert.Equal(t, 2, report.QuotaSignals)
}

func TestRetryPolicy_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 5, Backoff: time.Hour}

	calls := 0
	_, err := policy.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	_, err := fastPolicy(0).Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClassifyByMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{name: "nil", err: nil, expected: ClassTransient},
		{name: "status 429", err: httpStatusErr{code: 429}, expected: ClassQuota},
		{name: "status 500", err: httpStatusErr{code: 500}, expected: ClassTransient},
		{name: "429 in message", err: errors.New("got 429 from upstream"), expected: ClassQuota},
		{name: "quota in message", err: errors.New("Quota exceeded for metric"), expected: ClassQuota},
		{name: "too many tokens", err: errors.New("Too many tokens processed"), expected: ClassQuota},
		{name: "wrapped", err: fmt.Errorf("call: %w", errQuota), expected: ClassQuota},
		{name: "timeout", err: errors.New("context deadline exceeded"), expected: ClassTransient},
		{
			name:     "format error mentioning quota",
			err:      newResponseFormatError("s", ReasonInvalidJSON, "quota", errors.New("quota")),
			expected: ClassTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyByMessage(tt.err))
		})
	}
}

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "quota", ClassQuota.String())
	assert.Equal(t, "transient", ClassTransient.String())
}
