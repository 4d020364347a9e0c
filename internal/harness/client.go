// Package harness turns a prompt into a schema-validated structured response.
//
// Every vendor is reduced to the same pipeline: invoke the vendor, sanitize the raw
// text, parse it against a Schema. RetryPolicy wraps the whole pipeline, and a
// CredentialRotator swaps API keys on quota errors for vendors that support it.
// Only the Vendor implementation is vendor specific.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ggpbench/internal/logger"
	"ggpbench/internal/metrics"

	"github.com/charmbracelet/log"
)

// DefaultRotationCycles is how many full passes over the credential pool are made
// before quota errors become fatal.
const DefaultRotationCycles = 3

// Vendor is the vendor specific part of a client: one raw text completion call and
// the classification of its errors.
type Vendor interface {
	Name() string
	Invoke(ctx context.Context, cred Credential, model, prompt string) (string, error)
	Classify(err error) ErrorClass
}

// Rebinder is implemented by vendors that cache an SDK client bound to a credential.
// Rebind is called after every rotation.
type Rebinder interface {
	Rebind(cred Credential)
}

// ClientConfig holds everything a Client needs besides the vendor.
type ClientConfig struct {
	Model       string
	Credentials []string
	Policy      RetryPolicy

	// Rotation enables quota-triggered credential rotation.
	Rotation       bool
	RotationCycles int

	Recorder *metrics.Recorder
}

// Client is a provider client for one vendor and model. It is not safe for
// concurrent use.
type Client struct {
	vendor   Vendor
	model    string
	rotator  *CredentialRotator
	policy   RetryPolicy
	rotation bool
	cycles   int
	recorder *metrics.Recorder
	logger   *log.Logger
}

// NewClient wires vendor to a credential pool and retry policy.
func NewClient(vendor Vendor, cfg ClientConfig) (*Client, error) {
	if vendor == nil {
		return nil, errors.New("vendor is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: model name is required", vendor.Name())
	}

	var onRotate func(Credential)
	if rebinder, ok := vendor.(Rebinder); ok {
		onRotate = rebinder.Rebind
	}
	rotator, err := NewCredentialRotator(vendor.Name(), cfg.Credentials, onRotate)
	if err != nil {
		return nil, err
	}

	policy := cfg.Policy
	policy.Provider = vendor.Name()
	if policy.Classify == nil {
		policy.Classify = vendor.Classify
	}
	if policy.QuotaPause == 0 {
		policy.QuotaPause = DefaultQuotaPause
	}

	cycles := cfg.RotationCycles
	if cycles < 1 {
		cycles = DefaultRotationCycles
	}

	return &Client{
		vendor:   vendor,
		model:    cfg.Model,
		rotator:  rotator,
		policy:   policy,
		rotation: cfg.Rotation,
		cycles:   cycles,
		recorder: cfg.Recorder,
		logger:   logger.NewStyledLogger("harness"),
	}, nil
}

// Provider returns the vendor name.
func (c *Client) Provider() string {
	return c.vendor.Name()
}

// Model returns the model the client generates with.
func (c *Client) Model() string {
	return c.model
}

// Rotator exposes the credential pool.
func (c *Client) Rotator() *CredentialRotator {
	return c.rotator
}

// Generate sends prompt to the client's vendor and returns the parsed response.
// Each attempt runs invoke, Sanitize and schema.Parse; an unusable answer consumes
// an attempt like a transport error. Every failure is a *GenerationFailure.
func Generate[T any](ctx context.Context, c *Client, prompt string, schema *Schema[T]) (T, error) {
	start := time.Now()
	var result T

	policy := c.policy
	vendorClassify := policy.Classify
	policy.Classify = func(err error) ErrorClass {
		var formatErr *ResponseFormatError
		if errors.As(err, &formatErr) {
			return ClassTransient
		}
		return vendorClassify(err)
	}

	call := func(ctx context.Context) error {
		cred := c.rotator.Current()
		raw, err := c.vendor.Invoke(ctx, cred, c.model, prompt)
		if err != nil {
			c.logger.Warn("vendor call failed", "provider", c.vendor.Name(), "credential", cred, "error", err)
			return err
		}

		parsed, err := schema.Parse(Sanitize(raw))
		if err != nil {
			c.logger.Warn("unusable response", "provider", c.vendor.Name(), "error", err)
			return err
		}
		result = parsed
		return nil
	}

	report, err := policy.Do(ctx, call, c.quotaHandler())
	c.recordAttempts(report)

	if err != nil {
		failure := &GenerationFailure{
			Provider: c.vendor.Name(),
			Model:    c.model,
			Attempts: len(report.Attempts),
			Cause:    err,
		}
		c.recorder.GenerationFinished(failure.Provider, failure.Model, failure.Status(), time.Since(start))
		var zero T
		return zero, failure
	}

	c.recorder.GenerationFinished(c.vendor.Name(), c.model, "success", time.Since(start))
	c.logger.Debug("generation succeeded", "provider", c.vendor.Name(), "attempt", len(report.Attempts))
	return result, nil
}

// quotaHandler returns the onQuota callback for RetryPolicy.Do, or nil when rotation
// is disabled. Each Generate call gets its own rotation allowance of
// pool size × cycles.
func (c *Client) quotaHandler() func(error) error {
	if !c.rotation {
		return nil
	}

	limit := c.rotator.Size() * c.cycles
	rotations := 0
	return func(err error) error {
		if rotations >= limit {
			return &AllCredentialsExhaustedError{
				Provider:  c.vendor.Name(),
				PoolSize:  c.rotator.Size(),
				Rotations: rotations,
				Last:      err,
			}
		}
		rotations++

		next, rotated := c.rotator.Rotate()
		if rotated {
			c.recorder.CredentialRotated(c.vendor.Name())
		}
		c.logger.Warn("quota exceeded, switching credential",
			"provider", c.vendor.Name(), "credential", next, "rotation", rotations, "limit", limit)
		return nil
	}
}

func (c *Client) recordAttempts(report RetryReport) {
	for _, attempt := range report.Attempts {
		outcome := "success"
		if attempt.Err != nil {
			outcome = attempt.Class.String()
		}
		c.recorder.AttemptFinished(c.vendor.Name(), outcome)
	}
}
