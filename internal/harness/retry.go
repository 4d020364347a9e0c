package harness

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultQuotaPause is the pause before retrying after a quota signal.
const DefaultQuotaPause = time.Second

// Classifier maps a failed attempt to its retry class.
type Classifier func(err error) ErrorClass

// Attempt is the bookkeeping record of one call made by RetryPolicy.Do.
type Attempt struct {
	Number  int
	Elapsed time.Duration
	Class   ErrorClass
	Err     error
}

// RetryReport describes what Do did. Consumed counts only attempts charged against
// MaxAttempts; quota retries handled by onQuota are not charged.
type RetryReport struct {
	Attempts     []Attempt
	Consumed     int
	QuotaSignals int
}

// RetryPolicy bounds how often a call is attempted and how long to wait in between.
type RetryPolicy struct {
	Provider    string
	MaxAttempts int
	Backoff     time.Duration
	QuotaPause  time.Duration
	Classify    Classifier
}

// Do runs call until it succeeds or the attempt budget is spent.
//
// Quota-class failures are handed to onQuota when it is non-nil; such attempts do not
// consume the budget and are retried after QuotaPause. onQuota ends the loop by
// returning an error. With a nil onQuota, quota failures count like any other.
//
// Exhausting MaxAttempts returns *ExhaustedRetriesError. Context cancellation returns
// the context error.
func (p RetryPolicy) Do(ctx context.Context, call func(ctx context.Context) error, onQuota func(err error) error) (RetryReport, error) {
	var report RetryReport

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	classify := p.Classify
	if classify == nil {
		classify = ClassifyByMessage
	}

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		start := time.Now()
		err := call(ctx)
		attempt := Attempt{Number: len(report.Attempts) + 1, Elapsed: time.Since(start), Err: err}

		if err == nil {
			report.Consumed++
			report.Attempts = append(report.Attempts, attempt)
			return report, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Attempts = append(report.Attempts, attempt)
			return report, ctxErr
		}

		attempt.Class = classify(err)
		report.Attempts = append(report.Attempts, attempt)

		if attempt.Class == ClassQuota && onQuota != nil {
			report.QuotaSignals++
			if stop := onQuota(err); stop != nil {
				return report, stop
			}
			if err := sleep(ctx, p.QuotaPause); err != nil {
				return report, err
			}
			continue
		}

		report.Consumed++
		if report.Consumed >= maxAttempts {
			return report, &ExhaustedRetriesError{Provider: p.Provider, Attempts: report.Consumed, Last: err}
		}
		if err := sleep(ctx, p.Backoff); err != nil {
			return report, err
		}
	}
}

// StatusError is implemented by vendor errors that carry an HTTP status code.
type StatusError interface {
	error
	HTTPStatus() int
}

// ClassifyByMessage is the default classifier: HTTP 429, or a message mentioning
// 429, quota or "too many tokens", is quota class. Everything else is transient.
// A ResponseFormatError is always transient.
func ClassifyByMessage(err error) ErrorClass {
	if err == nil {
		return ClassTransient
	}

	var formatErr *ResponseFormatError
	if errors.As(err, &formatErr) {
		return ClassTransient
	}

	var statusErr StatusError
	if errors.As(err, &statusErr) && statusErr.HTTPStatus() == http.StatusTooManyRequests {
		return ClassQuota
	}
	return ClassifyStatus(0, err.Error())
}

// ClassifyStatus applies the quota rules to a raw status code and message.
func ClassifyStatus(status int, message string) ErrorClass {
	if status == http.StatusTooManyRequests {
		return ClassQuota
	}
	msg := strings.ToLower(message)
	for _, marker := range []string{"429", "quota", "too many tokens"} {
		if strings.Contains(msg, marker) {
			return ClassQuota
		}
	}
	return ClassTransient
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
