package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ggpbench/internal/harness"
	"ggpbench/internal/logger"

	"google.golang.org/genai"
)

// GeminiVendor calls Google Gemini through google.golang.org/genai.
// The SDK client is created lazily for the active credential.
type GeminiVendor struct {
	entry  Entry
	client *genai.Client
	secret string
}

// NewGeminiVendor creates a Gemini vendor for entry.
func NewGeminiVendor(entry Entry) *GeminiVendor {
	return &GeminiVendor{entry: entry}
}

// Name implements harness.Vendor.
func (v *GeminiVendor) Name() string {
	return v.entry.ID
}

// Rebind implements harness.Rebinder.
func (v *GeminiVendor) Rebind(harness.Credential) {
	v.client = nil
}

func (v *GeminiVendor) initializeClientIfNeeded(ctx context.Context, cred harness.Credential) error {
	if v.client != nil && v.secret == cred.Secret {
		return nil
	}

	config := &genai.ClientConfig{
		APIKey:     cred.Secret,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(v.entry),
	}
	if v.entry.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: v.entry.BaseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	v.client = client
	v.secret = cred.Secret
	logger.Debug("Gemini client initialized", "provider", v.entry.ID, "credential", cred)
	return nil
}

// Invoke implements harness.Vendor. Thought parts are skipped; the text parts of the
// first candidate are concatenated.
func (v *GeminiVendor) Invoke(ctx context.Context, cred harness.Credential, model, prompt string) (string, error) {
	if err := v.initializeClientIfNeeded(ctx, cred); err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if t := v.entry.Parameters.Temperature; t != nil {
		config.Temperature = genai.Ptr(float32(*t))
	}
	if p := v.entry.Parameters.TopP; p != nil {
		config.TopP = genai.Ptr(float32(*p))
	}
	if m := v.entry.Parameters.MaxTokens; m != nil {
		config.MaxOutputTokens = int32(*m)
	}

	result, err := v.client.Models.GenerateContent(ctx, v.entry.APIModel(model), genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var text strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought || part.Text == "" {
				continue
			}
			text.WriteString(part.Text)
		}
		break
	}
	return text.String(), nil
}

// Classify implements harness.Vendor.
func (v *GeminiVendor) Classify(err error) harness.ErrorClass {
	status := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code
	case errors.As(err, &apiErrPtr):
		status = apiErrPtr.Code
	}
	return harness.ClassifyStatus(status, errorMessage(err))
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
