package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DeepSeekConfig configures the DeepSeek adapter.
type DeepSeekConfig struct {
	Model   string
	BaseURL string
}

// DeepSeekProvider generates text through the DeepSeek chat completions
// API, which speaks the OpenAI wire format. The client is constructed per
// call with the key read from the credential store.
type DeepSeekProvider struct {
	creds CredentialSource
	cfg   DeepSeekConfig
}

// NewDeepSeekProvider creates a DeepSeek adapter reading its key from creds.
func NewDeepSeekProvider(creds CredentialSource, cfg DeepSeekConfig) *DeepSeekProvider {
	return &DeepSeekProvider{creds: creds, cfg: cfg}
}

// Name implements Provider.
func (p *DeepSeekProvider) Name() string {
	return ProviderDeepSeek
}

// GenerateText implements Provider.
func (p *DeepSeekProvider) GenerateText(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	key, err := p.creds.Secret(ctx, ProviderDeepSeek)
	if err != nil {
		return nil, fmt.Errorf("deepseek: read credential: %w", err)
	}
	if key == "" {
		return nil, fmt.Errorf("deepseek: %w", ErrMissingCredential)
	}

	req = req.withDefaults()

	clientCfg := openai.DefaultConfig(key)
	if p.cfg.BaseURL != "" {
		clientCfg.BaseURL = p.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("deepseek: chat completion: %v: %w", err, ErrUpstreamUnavailable)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("deepseek: no choices in response: %w", ErrUpstreamFormat)
	}

	return &GenerateResult{Text: resp.Choices[0].Message.Content, Provider: ProviderDeepSeek}, nil
}
