// Package genai implements the prompt generation client against
// OpenAI-compatible chat completion APIs. The model call is treated as an
// opaque external dependency: it either yields an ordered, non-empty set of
// short suggestions or it fails.
package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/goliatone/go-prompt-cache/prompt"
)

const systemPrompt = "You generate short, actionable prompt suggestions for a " +
	"productivity dashboard. Respond with one suggestion per line, no numbering, " +
	"no commentary. Each suggestion is at most twelve words."

// ProfileSource supplies optional per-user context for the generation call.
type ProfileSource interface {
	ProfileContext(ctx context.Context, userID string) (string, error)
}

// OpenAIGenerator implements regen.Generator for OpenAI-compatible APIs
// (OpenAI, DeepSeek, Kimi, etc. via base URL override).
type OpenAIGenerator struct {
	client   openai.Client
	model    string
	count    int
	profiles ProfileSource
}

// NewOpenAIGenerator creates a generator. baseURL may be empty for the
// OpenAI default; profiles may be nil, in which case only the user ID seeds
// the request. count is the number of suggestions requested (default 5).
func NewOpenAIGenerator(apiKey, baseURL, model string, count int, profiles ProfileSource) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if count <= 0 {
		count = 5
	}
	return &OpenAIGenerator{
		client:   openai.NewClient(opts...),
		model:    model,
		count:    count,
		profiles: profiles,
	}
}

// Generate asks the model for the user's suggestion set. An unparseable or
// empty response returns an error; it never fabricates suggestions.
func (g *OpenAIGenerator) Generate(ctx context.Context, userID string) ([]prompt.Suggestion, error) {
	userMsg := fmt.Sprintf("Generate %d prompt suggestions for user %s.", g.count, userID)
	if g.profiles != nil {
		profile, err := g.profiles.ProfileContext(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("genai: profile context: %w", err)
		}
		if profile != "" {
			userMsg += "\nUser context:\n" + profile
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMsg),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("genai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("genai: empty completion response")
	}

	suggestions := ParseSuggestions(resp.Choices[0].Message.Content, g.count)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("genai: no suggestions parsed from completion")
	}
	return suggestions, nil
}

// ParseSuggestions extracts up to max suggestions from a model response, one
// per line, stripping list markers the model sometimes adds anyway.
func ParseSuggestions(content string, max int) []prompt.Suggestion {
	var out []prompt.Suggestion
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		line = trimOrdinal(line)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, prompt.Suggestion{Text: line})
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// trimOrdinal strips a leading "1." / "2)" style marker.
func trimOrdinal(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) {
		return s
	}
	if s[i] == '.' || s[i] == ')' {
		return s[i+1:]
	}
	return s
}
