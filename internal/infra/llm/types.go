// Package llm defines the model-agnostic text-generation provider
// abstraction and its adapters. All types here are shared between the
// provider interface and the per-vendor implementations.
package llm

import "context"

// Provider names understood by the registry and the credential store.
const (
	ProviderGemini   = "gemini"
	ProviderDeepSeek = "deepseek"
)

// Generation defaults applied by adapters when the request leaves them unset.
const (
	DefaultTemperature float32 = 0.7
	DefaultMaxTokens           = 800
)

// GenerateRequest is the input for a text generation call.
// System carries the persona voice; Prompt carries the conversation
// context block plus the new user text.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// withDefaults returns a copy with zero-valued knobs replaced by defaults.
func (r GenerateRequest) withDefaults() GenerateRequest {
	if r.Temperature == 0 {
		r.Temperature = DefaultTemperature
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	return r
}

// GenerateResult is the normalized output of a provider call.
// Provider is the name of the adapter that actually produced the text.
type GenerateResult struct {
	Text     string
	Provider string
}

// Provider is the interface every text-generation adapter implements.
// Adapters read their credential from the CredentialSource at call time
// (never cached) so externally rotated keys take effect immediately.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// CredentialSource yields the stored secret for a provider, or an empty
// string when no valid credential exists.
type CredentialSource interface {
	Secret(ctx context.Context, provider string) (string, error)
}
