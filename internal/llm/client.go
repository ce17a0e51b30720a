// Package llm provides the conversational fallback used when no intent rule
// matches an utterance.
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Client produces a free-form completion for a prompt. Implementations must
// be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// systemPreamble keeps fallback replies in the voice-assistant register:
// short, spoken-word friendly, music focused.
const systemPreamble = "You are a friendly voice assistant for music. " +
	"Answer in one or two short spoken sentences. " +
	"If the request is not about music, gently steer back to music."

// GeminiClient calls the Gemini API for general conversation.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient dials the Gemini backend. An empty model selects
// DefaultModel.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: missing API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	full := systemPreamble + "\n\nUser: " + prompt
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(full), nil)
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("llm: empty response")
	}
	return text, nil
}
