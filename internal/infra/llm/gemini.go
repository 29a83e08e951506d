package llm

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// geminiAck is the fixed model turn that primes the persona. Gemini has no
// dedicated system slot in this request shape, so the persona goes in as a
// user turn acknowledged by the model before the real prompt.
const geminiAck = "I understand my role completely."

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	Model string
	// BaseURL overrides the Gemini API endpoint (tests).
	BaseURL string
	// HTTPClient overrides the transport (tests, custom timeouts).
	HTTPClient *http.Client
}

// GeminiProvider generates text through the Gemini API.
// The genai client is constructed per call with the key read from the
// credential store, so key rotation needs no process restart and no
// client state is shared across requests.
type GeminiProvider struct {
	creds CredentialSource
	cfg   GeminiConfig
}

// NewGeminiProvider creates a Gemini adapter reading its key from creds.
func NewGeminiProvider(creds CredentialSource, cfg GeminiConfig) *GeminiProvider {
	return &GeminiProvider{creds: creds, cfg: cfg}
}

// Name implements Provider.
func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

// GenerateText implements Provider.
func (p *GeminiProvider) GenerateText(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	key, err := p.creds.Secret(ctx, ProviderGemini)
	if err != nil {
		return nil, fmt.Errorf("gemini: read credential: %w", err)
	}
	if key == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingCredential)
	}

	req = req.withDefaults()

	clientCfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.cfg.HTTPClient,
	}
	if p.cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %v: %w", err, ErrUpstreamUnavailable)
	}

	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{{Text: req.System}}},
		{Role: genai.RoleModel, Parts: []*genai.Part{{Text: geminiAck}}},
		{Role: genai.RoleUser, Parts: []*genai.Part{{Text: req.Prompt}}},
	}
	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		TopP:            genai.Ptr[float32](0.95),
		TopK:            genai.Ptr[float32](40),
		MaxOutputTokens: int32(req.MaxTokens),
	}

	resp, err := client.Models.GenerateContent(ctx, p.cfg.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %v: %w", err, ErrUpstreamUnavailable)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini: no candidate text: %w", ErrUpstreamFormat)
	}

	return &GenerateResult{Text: text, Provider: ProviderGemini}, nil
}
