// Package image provides the image-generation fallback chain: Stability,
// then Hugging Face inference (authenticated, then anonymous), then a
// deterministic placeholder locator. The chain as a whole never fails.
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Credential store keys used by the chain.
const (
	ProviderStability   = "stability"
	ProviderHuggingFace = "huggingface"
)

const placeholderBaseURL = "https://source.unsplash.com/800x600/?"

// CredentialSource yields the stored secret for a provider, or an empty
// string when no valid credential exists.
type CredentialSource interface {
	Secret(ctx context.Context, provider string) (string, error)
}

// Config configures the chain endpoints.
type Config struct {
	StabilityURL   string
	HuggingFaceURL string
}

// Generator walks the provider chain for each request. Stages are tried in
// order; the first payload wins and stage failures only advance the chain.
type Generator struct {
	creds      CredentialSource
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

// NewGenerator creates a Generator with a 60s HTTP timeout (image
// inference endpoints are slow on cold starts).
func NewGenerator(creds CredentialSource, cfg Config, logger *zap.Logger) *Generator {
	return &Generator{
		creds:      creds,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logger,
	}
}

// Generate returns an image for prompt: a data URI from the first
// succeeding provider, or the placeholder URL when every provider fails.
func (g *Generator) Generate(ctx context.Context, prompt string) string {
	if key := g.secret(ctx, ProviderStability); key != "" {
		if uri, err := g.stability(ctx, prompt, key); err == nil {
			return uri
		} else {
			g.log.Warn("stability image generation failed", zap.Error(err))
		}
	}

	if key := g.secret(ctx, ProviderHuggingFace); key != "" {
		if uri, err := g.huggingFace(ctx, prompt, key); err == nil {
			return uri
		} else {
			g.log.Warn("authenticated huggingface generation failed", zap.Error(err))
		}
	}

	// Free public endpoint, no credential.
	if uri, err := g.huggingFace(ctx, prompt, ""); err == nil {
		return uri
	} else {
		g.log.Warn("anonymous huggingface generation failed", zap.Error(err))
	}

	return Placeholder(prompt)
}

// Placeholder builds the deterministic fallback image locator from the
// first three words of the prompt.
func Placeholder(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 3 {
		words = words[:3]
	}
	return placeholderBaseURL + url.QueryEscape(strings.Join(words, " "))
}

func (g *Generator) secret(ctx context.Context, provider string) string {
	key, err := g.creds.Secret(ctx, provider)
	if err != nil {
		g.log.Warn("credential lookup failed", zap.String("provider", provider), zap.Error(err))
		return ""
	}
	return key
}

// --- Stability ---

type stabilityRequest struct {
	TextPrompts []stabilityPrompt `json:"text_prompts"`
	CfgScale    int               `json:"cfg_scale"`
	Height      int               `json:"height"`
	Width       int               `json:"width"`
	Steps       int               `json:"steps"`
	Samples     int               `json:"samples"`
}

type stabilityPrompt struct {
	Text string `json:"text"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64 string `json:"base64"`
	} `json:"artifacts"`
}

func (g *Generator) stability(ctx context.Context, prompt, key string) (string, error) {
	body, err := json.Marshal(stabilityRequest{
		TextPrompts: []stabilityPrompt{{Text: prompt}},
		CfgScale:    7,
		Height:      1024,
		Width:       1024,
		Steps:       30,
		Samples:     1,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.StabilityURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("stability: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stability: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("stability: status %d", resp.StatusCode)
	}

	var parsed stabilityResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&parsed); decodeErr != nil {
		return "", fmt.Errorf("stability: decode response: %w", decodeErr)
	}
	if len(parsed.Artifacts) == 0 {
		return "", fmt.Errorf("stability: no artifacts in response")
	}

	return "data:image/png;base64," + parsed.Artifacts[0].Base64, nil
}

// --- Hugging Face hosted inference ---

func (g *Generator) huggingFace(ctx context.Context, prompt, key string) (string, error) {
	body, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.HuggingFaceURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("huggingface: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("huggingface: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("huggingface: read body: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("huggingface: empty image payload")
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}
