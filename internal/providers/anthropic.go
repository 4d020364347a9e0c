package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ggpbench/internal/harness"
	"ggpbench/internal/logger"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultAnthropicMaxTokens is used when the catalog sets no max_tokens; the
// Messages API requires one.
const defaultAnthropicMaxTokens = 4096

// AnthropicVendor calls the Anthropic Messages API through anthropic-sdk-go.
type AnthropicVendor struct {
	entry  Entry
	client *anthropic.Client
	secret string
}

// NewAnthropicVendor creates an Anthropic vendor for entry.
func NewAnthropicVendor(entry Entry) *AnthropicVendor {
	return &AnthropicVendor{entry: entry}
}

// Name implements harness.Vendor.
func (v *AnthropicVendor) Name() string {
	return v.entry.ID
}

// Rebind implements harness.Rebinder.
func (v *AnthropicVendor) Rebind(harness.Credential) {
	v.client = nil
}

func (v *AnthropicVendor) initializeClientIfNeeded(cred harness.Credential) {
	if v.client != nil && v.secret == cred.Secret {
		return
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cred.Secret),
		option.WithHTTPClient(newHTTPClient(v.entry)),
		option.WithMaxRetries(0),
	}
	if v.entry.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(v.entry.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	v.client = &client
	v.secret = cred.Secret
	logger.Debug("Anthropic client initialized", "provider", v.entry.ID, "credential", cred)
}

// Invoke implements harness.Vendor. The prompt is sent as one user message and the
// text blocks of the reply are concatenated.
func (v *AnthropicVendor) Invoke(ctx context.Context, cred harness.Credential, model, prompt string) (string, error) {
	v.initializeClientIfNeeded(cred)

	maxTokens := int64(defaultAnthropicMaxTokens)
	if m := v.entry.Parameters.MaxTokens; m != nil {
		maxTokens = *m
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(v.entry.APIModel(model)),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if t := v.entry.Parameters.Temperature; t != nil {
		params.Temperature = anthropic.Float(*t)
	}
	if p := v.entry.Parameters.TopP; p != nil {
		params.TopP = anthropic.Float(*p)
	}

	message, err := v.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		content.WriteString(block.Text)
	}
	return content.String(), nil
}

// Classify implements harness.Vendor.
func (v *AnthropicVendor) Classify(err error) harness.ErrorClass {
	status := 0
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return harness.ClassifyStatus(status, errorMessage(err))
}
