package ai

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"amorbot/config"

	"google.golang.org/genai"
)

// Provider calls Gemini (Official SDK) and implements fleet.TextGenerator.
type Provider struct{}

func NewProvider() *Provider {
	return &Provider{}
}

// GenerateText issues one generation call. proxyURL, when set, routes the
// call through the session's assigned egress proxy.
func (p *Provider) GenerateText(ctx context.Context, systemRole, prompt string, temperature float64, proxyURL string) (string, error) {
	// Validate API key
	if config.GeminiAPIKey == "" {
		return "", fmt.Errorf("Gemini API key not configured")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return "", fmt.Errorf("invalid egress proxy URL: %w", err)
		}
		clientConfig.HTTPClient = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxy)},
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}

	systemInstruction := systemRole
	if systemInstruction == "" {
		systemInstruction = "You are a helpful writing assistant. Be friendly, concise, and natural."
	}

	// Setup parameters and clean model name
	temp := float32(temperature)
	maxTok := int32(config.AIDefaultMaxTokens)
	modelName := strings.TrimPrefix(config.GeminiDefaultModel, "models/")

	result, err := client.Models.GenerateContent(
		ctx,
		modelName,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{
					{Text: systemInstruction},
				},
			},
			Temperature:     &temp,
			MaxOutputTokens: maxTok,
		},
	)
	if err != nil {
		return "", fmt.Errorf("Gemini SDK Error: %w", err)
	}

	if result == nil {
		return "", fmt.Errorf("nil result from Gemini")
	}

	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("nil content in candidate")
	}

	if candidate.FinishReason != "" {
		log.Printf("[AI DEBUG] Gemini FinishReason: %v", candidate.FinishReason)
	}

	var textParts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
	}

	responseText := strings.Join(textParts, " ")
	if responseText == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}

	return strings.TrimSpace(responseText), nil
}
