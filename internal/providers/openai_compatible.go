package providers

import (
	"context"
	"errors"
	"fmt"

	"ggpbench/internal/harness"
	"ggpbench/internal/logger"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAICompatibleVendor calls any OpenAI-compatible chat completions endpoint
// (Cerebras, NVIDIA NIM) through github.com/openai/openai-go. The prompt is sent as
// a single system message.
type OpenAICompatibleVendor struct {
	entry  Entry
	client *openai.Client
	secret string
}

// NewOpenAICompatibleVendor creates a vendor for entry. entry.BaseURL must be set.
func NewOpenAICompatibleVendor(entry Entry) *OpenAICompatibleVendor {
	return &OpenAICompatibleVendor{entry: entry}
}

// Name implements harness.Vendor.
func (v *OpenAICompatibleVendor) Name() string {
	return v.entry.ID
}

// Rebind implements harness.Rebinder.
func (v *OpenAICompatibleVendor) Rebind(harness.Credential) {
	v.client = nil
}

func (v *OpenAICompatibleVendor) initializeClientIfNeeded(cred harness.Credential) {
	if v.client != nil && v.secret == cred.Secret {
		return
	}

	// Retries are handled by harness.RetryPolicy.
	client := openai.NewClient(
		option.WithAPIKey(cred.Secret),
		option.WithBaseURL(v.entry.BaseURL),
		option.WithHTTPClient(newHTTPClient(v.entry)),
		option.WithMaxRetries(0),
	)
	v.client = &client
	v.secret = cred.Secret
	logger.Debug("OpenAI-compatible client initialized", "provider", v.entry.ID, "base_url", v.entry.BaseURL, "credential", cred)
}

// Invoke implements harness.Vendor.
func (v *OpenAICompatibleVendor) Invoke(ctx context.Context, cred harness.Credential, model, prompt string) (string, error) {
	v.initializeClientIfNeeded(cred)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(v.entry.APIModel(model)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
		},
	}
	v.applyParameters(&params)

	completion, err := v.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", v.entry.ID, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", v.entry.ID)
	}
	return completion.Choices[0].Message.Content, nil
}

func (v *OpenAICompatibleVendor) applyParameters(params *openai.ChatCompletionNewParams) {
	p := v.entry.Parameters
	if p.Temperature != nil {
		params.Temperature = openai.Float(*p.Temperature)
	}
	if p.TopP != nil {
		params.TopP = openai.Float(*p.TopP)
	}
	if p.MaxTokens != nil {
		params.MaxTokens = openai.Int(*p.MaxTokens)
	}
	if p.MaxCompletionTokens != nil {
		params.MaxCompletionTokens = openai.Int(*p.MaxCompletionTokens)
	}
}

// Classify implements harness.Vendor.
func (v *OpenAICompatibleVendor) Classify(err error) harness.ErrorClass {
	status := 0
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return harness.ClassifyStatus(status, errorMessage(err))
}
