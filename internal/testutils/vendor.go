package testutils

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ggpbench/internal/harness"
)

// Reply is one scripted vendor answer: raw text, or an error when Err is set.
type Reply struct {
	Text string
	Err  error
}

// Text is a successful reply.
func Text(s string) Reply {
	return Reply{Text: s}
}

// Fail is a failed reply.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// ErrQuota is a quota-class failure as the default classifier sees it.
var ErrQuota = errors.New("429 Too Many Requests: quota exceeded")

// ErrUnavailable is a transient failure.
var ErrUnavailable = errors.New("503 service unavailable")

// Call records one Invoke made against a ScriptedVendor.
type Call struct {
	Credential harness.Credential
	Model      string
	Prompt     string
}

// ScriptedVendor is a harness.Vendor that replays a fixed list of replies. Once the
// script is used up it keeps returning Fallback (or an error when Fallback is zero).
type ScriptedVendor struct {
	VendorName string
	Script     []Reply
	Fallback   *Reply

	// Respond, when set, computes replies instead of the script.
	Respond func(prompt string) Reply

	mu       sync.Mutex
	calls    []Call
	rebinds  []harness.Credential
	position int
}

// NewScriptedVendor creates a vendor named name replaying replies in order.
func NewScriptedVendor(name string, replies ...Reply) *ScriptedVendor {
	return &ScriptedVendor{VendorName: name, Script: replies}
}

// Echo returns a vendor that answers every prompt with text.
func Echo(name, text string) *ScriptedVendor {
	reply := Text(text)
	return &ScriptedVendor{VendorName: name, Fallback: &reply}
}

// Name implements harness.Vendor.
func (v *ScriptedVendor) Name() string {
	if v.VendorName == "" {
		return "scripted"
	}
	return v.VendorName
}

// Invoke implements harness.Vendor.
func (v *ScriptedVendor) Invoke(ctx context.Context, cred harness.Credential, model, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.calls = append(v.calls, Call{Credential: cred, Model: model, Prompt: prompt})

	var reply Reply
	switch {
	case v.Respond != nil:
		reply = v.Respond(prompt)
	case v.position < len(v.Script):
		reply = v.Script[v.position]
		v.position++
	case v.Fallback != nil:
		reply = *v.Fallback
	default:
		reply = Fail(fmt.Errorf("script exhausted after %d replies", len(v.Script)))
	}
	return reply.Text, reply.Err
}

// Classify implements harness.Vendor with the default message rules.
func (v *ScriptedVendor) Classify(err error) harness.ErrorClass {
	return harness.ClassifyByMessage(err)
}

// Rebind implements harness.Rebinder and records the credential.
func (v *ScriptedVendor) Rebind(cred harness.Credential) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rebinds = append(v.rebinds, cred)
}

// Calls returns a copy of the recorded calls.
func (v *ScriptedVendor) Calls() []Call {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Call(nil), v.calls...)
}

// Rebinds returns the credentials passed to Rebind, in order.
func (v *ScriptedVendor) Rebinds() []harness.Credential {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]harness.Credential(nil), v.rebinds...)
}

// NewClient wraps vendor in a harness.Client with zero backoff, suitable for tests.
func NewClient(vendor harness.Vendor, maxAttempts int, keys ...string) (*harness.Client, error) {
	if len(keys) == 0 {
		keys = []string{"test-key-0000000001"}
	}
	return harness.NewClient(vendor, harness.ClientConfig{
		Model:       "test-model",
		Credentials: keys,
		Policy: harness.RetryPolicy{
			MaxAttempts: maxAttempts,
			QuotaPause:  1,
		},
	})
}
