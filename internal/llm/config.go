// Package llm provides LLM configuration and the client abstraction used by the content agent.
package llm

// ModelTier selects which configured model serves a call.
type ModelTier string

const (
	// TierLite is used for evaluation prompts
	TierLite ModelTier = "lite"
	// TierStandard is used for drafting and targeted rewrites
	TierStandard ModelTier = "standard"
	// TierAdvanced is used for full rewrites
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// Sampling defaults for marketing copy.
const (
	DefaultMaxOutputTokens int32   = 2048
	DefaultTemperature     float32 = 0.7
	DefaultTopP            float32 = 0.8
	DefaultTopK            int32   = 40
)

// Config holds the model configuration for the application
type Config struct {
	Provider        Provider
	Models          map[ModelTier]string
	MaxOutputTokens int32
	Temperature     float32
	TopP            float32
	TopK            int32
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig(DefaultModel)
}

// DefaultGeminiConfig returns a Gemini configuration that serves every tier with model.
func DefaultGeminiConfig(model string) *Config {
	if model == "" {
		model = DefaultModel
	}
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     model,
			TierStandard: model,
			TierAdvanced: model,
		},
		MaxOutputTokens: DefaultMaxOutputTokens,
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		TopK:            DefaultTopK,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok && model != "" {
		return model
	}
	if model, ok := c.Models[TierLite]; ok && model != "" {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier.
// An empty model leaves the tier unchanged.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	if model != "" {
		newConfig.Models[tier] = model
	}
	return &newConfig
}

// WithMaxOutputTokens returns a new Config with the token limit replaced when positive.
func (c *Config) WithMaxOutputTokens(n int32) *Config {
	newConfig := c.WithModel(TierStandard, "")
	if n > 0 {
		newConfig.MaxOutputTokens = n
	}
	return newConfig
}
