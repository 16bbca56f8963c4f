package keywords

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const matchSystemPrompt = `You are a semantic keyword matcher for source-control notifications.
Given content and a list of keywords, decide which keywords the content is genuinely about.
A keyword matches when the content discusses its topic, even with different wording; do not match on coincidental substrings.
Respond with a JSON object containing:
- matched: array of the matching keywords, exactly as given
- details: object mapping each matched keyword to a one-sentence rationale

Respond ONLY with the JSON object, no other text.`

// ClaudeOracle implements Oracle against the Claude API.
type ClaudeOracle struct {
	client anthropic.Client
}

// NewClaudeOracle creates an oracle using the given API key, falling
// back to the ANTHROPIC_API_KEY environment variable.
func NewClaudeOracle(apiKey string) (*ClaudeOracle, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("keyword oracle API key not provided. Set ANTHROPIC_API_KEY")
	}

	return &ClaudeOracle{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Match asks the oracle which keywords the content is about.
func (o *ClaudeOracle) Match(ctx context.Context, text string, keywords []string) (Result, error) {
	if len(keywords) == 0 || strings.TrimSpace(text) == "" {
		return Result{}, nil
	}

	message, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeSonnet4_5_20250929,
		MaxTokens: 500,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildMatchPrompt(text, keywords))),
		},
		System: []anthropic.TextBlockParam{
			{Text: matchSystemPrompt},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("keyword oracle call failed: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	result, err := parseResult(responseText)
	if err != nil {
		return Result{}, err
	}
	return restrictTo(result, keywords), nil
}

func buildMatchPrompt(text string, keywords []string) string {
	var sb strings.Builder
	sb.WriteString("Keywords:\n")
	for _, kw := range keywords {
		sb.WriteString("- ")
		sb.WriteString(kw)
		sb.WriteString("\n")
	}
	sb.WriteString("\nContent:\n")
	sb.WriteString(text)
	return sb.String()
}

// parseResult decodes the oracle's JSON reply, tolerating stray text
// around the object.
func parseResult(responseText string) (Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		if start := strings.Index(responseText, "{"); start >= 0 {
			if end := strings.LastIndex(responseText, "}"); end > start {
				if inner := json.Unmarshal([]byte(responseText[start:end+1]), &result); inner == nil {
					return result, nil
				}
			}
		}
		return Result{}, fmt.Errorf("failed to parse keyword oracle response: %w", err)
	}
	return result, nil
}

// restrictTo drops any keyword the oracle reports that was not in the
// request.
func restrictTo(result Result, keywords []string) Result {
	requested := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		requested[kw] = true
	}

	out := Result{Details: make(map[string]string)}
	for _, kw := range result.Matched {
		if !requested[kw] {
			continue
		}
		out.Matched = append(out.Matched, kw)
		if detail, ok := result.Details[kw]; ok {
			out.Details[kw] = detail
		}
	}
	if len(out.Details) == 0 {
		out.Details = nil
	}
	return out
}
