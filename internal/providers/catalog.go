// Package providers implements harness vendors on top of the official LLM SDKs and
// builds ready-to-use harness clients from the embedded provider catalog.
package providers

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"ggpbench/internal/data/embedded"
	"ggpbench/internal/harness"

	"gopkg.in/yaml.v3"
)

// Client types understood by NewVendor.
const (
	ClientTypeGemini           = "gemini"
	ClientTypeOpenAICompatible = "openai-compatible"
	ClientTypeAnthropic        = "anthropic"
)

// Parameters are optional sampling settings sent with every request.
type Parameters struct {
	Temperature         *float64 `yaml:"temperature" json:"temperature,omitempty"`
	TopP                *float64 `yaml:"top_p" json:"top_p,omitempty"`
	MaxTokens           *int64   `yaml:"max_tokens" json:"max_tokens,omitempty"`
	MaxCompletionTokens *int64   `yaml:"max_completion_tokens" json:"max_completion_tokens,omitempty"`
}

// RetrySettings configure the harness retry policy for a provider.
type RetrySettings struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" json:"backoff"`
}

// RotationSettings configure quota-triggered credential rotation.
type RotationSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Cycles  int  `yaml:"cycles" json:"cycles"`
}

// Entry describes one provider: how to reach it, which credentials it reads and how
// calls to it are retried.
type Entry struct {
	// ID is the provider name used on the command line (e.g., "cerebras").
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`

	// ClientType selects the vendor implementation.
	ClientType string `yaml:"client_type" json:"client_type"`

	// BaseURL overrides the SDK's default endpoint.
	BaseURL string `yaml:"base_url" json:"base_url,omitempty"`

	// ModelPrefix is prepended to the model name on the wire (NVIDIA uses "openai/").
	ModelPrefix  string `yaml:"model_prefix" json:"model_prefix,omitempty"`
	DefaultModel string `yaml:"default_model" json:"default_model"`

	// APIKeyEnv lists environment variables holding a single key, in priority order.
	APIKeyEnv []string `yaml:"api_key_env" json:"api_key_env"`
	// APIKeysEnv names a variable holding a comma separated key list. It wins over APIKeyEnv.
	APIKeysEnv string `yaml:"api_keys_env" json:"api_keys_env,omitempty"`

	Timeout    time.Duration    `yaml:"timeout" json:"timeout"`
	Retry      RetrySettings    `yaml:"retry" json:"retry"`
	Rotation   RotationSettings `yaml:"rotation" json:"rotation"`
	Parameters Parameters       `yaml:"parameters" json:"parameters"`
}

// APIModel returns the model name as sent to the vendor.
func (e Entry) APIModel(model string) string {
	if e.ModelPrefix == "" || strings.HasPrefix(model, e.ModelPrefix) {
		return model
	}
	return e.ModelPrefix + model
}

// Policy returns the harness retry policy for the entry.
func (e Entry) Policy() harness.RetryPolicy {
	return harness.RetryPolicy{
		Provider:    e.ID,
		MaxAttempts: e.Retry.MaxAttempts,
		Backoff:     e.Retry.Backoff,
	}
}

// ResolveKeys returns the credentials for the entry. An explicit key wins for single
// key providers; for providers with a key list variable, the list wins, as the
// rotation pool is only useful with more than one key.
func (e Entry) ResolveKeys(explicit string, getenv func(string) string) []string {
	if getenv == nil {
		getenv = os.Getenv
	}

	if e.APIKeysEnv != "" {
		if list := splitKeys(getenv(e.APIKeysEnv)); len(list) > 0 {
			return list
		}
	}
	if explicit != "" {
		return []string{explicit}
	}
	for _, name := range e.APIKeyEnv {
		if key := strings.TrimSpace(getenv(name)); key != "" {
			return []string{key}
		}
	}
	return nil
}

// KeySources describes where keys are read from, for error messages.
func (e Entry) KeySources() string {
	sources := append([]string(nil), e.APIKeyEnv...)
	if e.APIKeysEnv != "" {
		sources = append([]string{e.APIKeysEnv}, sources...)
	}
	return strings.Join(sources, " or ")
}

func splitKeys(list string) []string {
	var keys []string
	for _, key := range strings.Split(list, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Catalog is the set of known providers.
type Catalog struct {
	entries map[string]Entry
}

type catalogFile struct {
	Providers []Entry `yaml:"providers"`
}

// LoadCatalog parses the embedded provider catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(embedded.ProvidersCatalogData)
}

// ParseCatalog parses catalog YAML and validates every entry.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse provider catalog: %w", err)
	}

	catalog := &Catalog{entries: make(map[string]Entry, len(file.Providers))}
	for _, entry := range file.Providers {
		if err := validateEntry(entry); err != nil {
			return nil, err
		}
		id := normalizeID(entry.ID)
		if existing, exists := catalog.entries[id]; exists {
			return nil, fmt.Errorf("duplicate provider ID found: '%s' and '%s' (case insensitive)", existing.ID, entry.ID)
		}
		catalog.entries[id] = entry
	}
	return catalog, nil
}

func validateEntry(entry Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("provider entry without id")
	}
	switch entry.ClientType {
	case ClientTypeGemini, ClientTypeOpenAICompatible, ClientTypeAnthropic:
	default:
		return fmt.Errorf("provider %s: unsupported client_type %q", entry.ID, entry.ClientType)
	}
	if entry.ClientType == ClientTypeOpenAICompatible && entry.BaseURL == "" {
		return fmt.Errorf("provider %s: base_url is required for %s clients", entry.ID, entry.ClientType)
	}
	if entry.Retry.MaxAttempts < 1 {
		return fmt.Errorf("provider %s: retry.max_attempts must be positive", entry.ID)
	}
	return nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Lookup returns the entry for id, case-insensitively.
func (c *Catalog) Lookup(id string) (Entry, error) {
	entry, ok := c.entries[normalizeID(id)]
	if !ok {
		return Entry{}, fmt.Errorf("unknown provider %q (available: %s)", id, strings.Join(c.IDs(), ", "))
	}
	return entry, nil
}

// IDs returns the provider IDs in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for _, entry := range c.entries {
		ids = append(ids, entry.ID)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns all entries sorted by ID.
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, 0, len(c.entries))
	for _, id := range c.IDs() {
		entries = append(entries, c.entries[normalizeID(id)])
	}
	return entries
}
