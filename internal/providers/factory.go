package providers

import (
	"fmt"

	"ggpbench/internal/harness"
	"ggpbench/internal/metrics"
)

// NewVendor creates the vendor implementation for entry.ClientType.
func NewVendor(entry Entry) (harness.Vendor, error) {
	switch entry.ClientType {
	case ClientTypeGemini:
		return NewGeminiVendor(entry), nil
	case ClientTypeOpenAICompatible:
		if entry.BaseURL == "" {
			return nil, fmt.Errorf("provider %s: base_url is required", entry.ID)
		}
		return NewOpenAICompatibleVendor(entry), nil
	case ClientTypeAnthropic:
		return NewAnthropicVendor(entry), nil
	default:
		return nil, fmt.Errorf("provider %s: unsupported client_type %q", entry.ID, entry.ClientType)
	}
}

// NewClient builds a harness client for entry. Rotation is enabled only when the
// catalog enables it for the provider.
func NewClient(entry Entry, model string, keys []string, recorder *metrics.Recorder) (*harness.Client, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("missing API key for %s: set %s or pass --api-key", entry.ID, entry.KeySources())
	}
	if model == "" {
		model = entry.DefaultModel
	}

	vendor, err := NewVendor(entry)
	if err != nil {
		return nil, err
	}

	return harness.NewClient(vendor, harness.ClientConfig{
		Model:          model,
		Credentials:    keys,
		Policy:         entry.Policy(),
		Rotation:       entry.Rotation.Enabled,
		RotationCycles: entry.Rotation.Cycles,
		Recorder:       recorder,
	})
}
