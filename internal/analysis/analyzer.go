// Package analysis summarizes scraped article content with a chat model.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mwhitfield/ria-analyst/internal/llm"
)

// Analysis is the structured summary of one piece of content.
type Analysis struct {
	InvestmentThemes []string `json:"investment_themes"`
	KeyPoints        []string `json:"key_points"`
	Summary          string   `json:"summary"`
}

const systemPrompt = `You are a financial analyst expert. Analyze the given content and respond with a single JSON object in exactly this shape:
{"investment_themes": ["..."], "key_points": ["..."], "summary": "..."}
investment_themes lists investment themes mentioned in the content, key_points lists the main points, and summary is a brief summary. Focus on financial and investment-related information. Respond with JSON only.`

// Analyzer turns article content into an Analysis.
type Analyzer struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer(client llm.Client, model string, logger *zap.Logger) *Analyzer {
	return &Analyzer{client: client, model: model, logger: logger}
}

// Analyze summarizes content. Transport failures return an error; malformed
// model output returns a sentinel record instead, so callers always get a
// displayable Analysis once the model was reachable.
func (a *Analyzer) Analyze(ctx context.Context, content string) (Analysis, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Content to analyze: " + content},
		},
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze content: %w", err)
	}
	if len(resp.Choices) == 0 {
		a.logger.Error("model returned no choices")
		return sentinelAnalysis(), nil
	}

	raw := llm.StripFences(resp.Choices[0].Message.Content)
	var result Analysis
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		a.logger.Error("model output was not valid analysis JSON",
			zap.Error(err), zap.String("raw", raw))
		return sentinelAnalysis(), nil
	}
	return result, nil
}

func sentinelAnalysis() Analysis {
	return Analysis{
		InvestmentThemes: []string{"Error analyzing themes"},
		KeyPoints:        []string{"Error analyzing content"},
		Summary:          "Analysis failed due to formatting error. Please try again.",
	}
}
