package harness

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// rawPreviewLimit bounds the raw response text kept on a ResponseFormatError.
const rawPreviewLimit = 512

// FormatReason is the reason code carried by a ResponseFormatError.
type FormatReason string

// Reason codes for unusable provider answers.
const (
	ReasonEmptyResponse   FormatReason = "empty_response"
	ReasonInvalidJSON     FormatReason = "invalid_json"
	ReasonSchemaViolation FormatReason = "schema_violation"
	ReasonDecodeFailed    FormatReason = "decode_failed"
)

// ErrorClass is the retry classification of a vendor failure.
type ErrorClass int

// Error classes understood by RetryPolicy.
const (
	ClassTransient ErrorClass = iota
	ClassQuota
)

// String returns the metric label for the class.
func (c ErrorClass) String() string {
	if c == ClassQuota {
		return "quota"
	}
	return "transient"
}

// ResponseFormatError reports that a provider answered but the text could not be
// turned into the expected structure.
type ResponseFormatError struct {
	Schema string
	Reason FormatReason
	Raw    string
	Err    error
}

func newResponseFormatError(schema string, reason FormatReason, raw string, err error) *ResponseFormatError {
	return &ResponseFormatError{
		Schema: schema,
		Reason: reason,
		Raw:    truncate(raw, rawPreviewLimit),
		Err:    err,
	}
}

func (e *ResponseFormatError) Error() string {
	msg := fmt.Sprintf("response does not match %s schema (%s)", e.Schema, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

// ExhaustedRetriesError reports that the attempt budget ran out before any attempt
// succeeded. Last holds the error of the final attempt.
type ExhaustedRetriesError struct {
	Provider string
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Provider, e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}

// AllCredentialsExhaustedError reports that every credential in a pool kept hitting
// quota limits for the configured number of rotation cycles.
type AllCredentialsExhaustedError struct {
	Provider  string
	PoolSize  int
	Rotations int
	Last      error
}

func (e *AllCredentialsExhaustedError) Error() string {
	return fmt.Sprintf("%s: all %d credentials exhausted after %d rotations: %v",
		e.Provider, e.PoolSize, e.Rotations, e.Last)
}

func (e *AllCredentialsExhaustedError) Unwrap() error {
	return e.Last
}

// GenerationFailure is the only error type returned by Generate. Cause is the terminal
// error: an ExhaustedRetriesError, an AllCredentialsExhaustedError or a context error.
type GenerationFailure struct {
	Provider string
	Model    string
	Attempts int
	Cause    error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation with %s/%s failed after %d attempts: %v",
		e.Provider, e.Model, e.Attempts, e.Cause)
}

func (e *GenerationFailure) Unwrap() error {
	return e.Cause
}

// Answered reports whether the final attempt got text back from the provider, i.e.
// the failure ended on an unusable response rather than a transport error. Earlier
// attempts are not considered.
func (e *GenerationFailure) Answered() bool {
	var formatErr *ResponseFormatError
	return errors.As(e.Cause, &formatErr)
}

// Status returns the metric label describing the failure.
func (e *GenerationFailure) Status() string {
	var credsErr *AllCredentialsExhaustedError
	switch {
	case errors.As(e.Cause, &credsErr):
		return "credentials_exhausted"
	case e.Answered():
		return "format_error"
	case errors.As(e.Cause, new(*ExhaustedRetriesError)):
		return "exhausted"
	default:
		return "error"
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
