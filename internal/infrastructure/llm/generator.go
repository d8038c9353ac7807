// Package llm implements the fallback generator used when no stored
// reference matches a transcript.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
)

const systemPrompt = `You are an allergy and immunology literature assistant.
Given a patient visit transcript, produce a single JSON object with two keys:
"insight" (object with "title", "summary", "keywords", "relevance_tag",
"confidence") and "reference" (object with "pmid", "title", "url"). The
insight must describe literature relevant to the transcript. Respond with
JSON only, no surrounding text.`

// Config carries the generative-model connection settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Generator calls an OpenAI-compatible chat completion API. Responses must be
// a well-formed JSON object; anything else is a hard failure for the request.
type Generator struct {
	client *openai.Client
	model  string
}

var _ ports.FallbackGenerator = (*Generator)(nil)

// NewGenerator builds a client from configuration. BaseURL is only overridden
// for tests and self-hosted gateways.
func NewGenerator(cfg Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Generator{client: openai.NewClientWithConfig(clientCfg), model: model}
}

// Generate prompts the model with the transcript and parses the structured
// reply.
func (g *Generator) Generate(ctx context.Context, transcript string) (domain.Insight, domain.ReferenceLink, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
	})
	if err != nil {
		return domain.Insight{}, domain.ReferenceLink{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return domain.Insight{}, domain.ReferenceLink{}, errors.New("empty model response")
	}

	return parseReply(resp.Choices[0].Message.Content)
}

func parseReply(content string) (domain.Insight, domain.ReferenceLink, error) {
	var reply struct {
		Insight   *domain.Insight       `json:"insight"`
		Reference *domain.ReferenceLink `json:"reference"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &reply); err != nil {
		return domain.Insight{}, domain.ReferenceLink{}, fmt.Errorf("malformed model response: %w", err)
	}
	if reply.Insight == nil || reply.Reference == nil {
		return domain.Insight{}, domain.ReferenceLink{}, errors.New("malformed model response: missing insight or reference")
	}
	return *reply.Insight, *reply.Reference, nil
}

// stripFences removes a surrounding markdown code fence, which some models
// insist on despite the prompt.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
