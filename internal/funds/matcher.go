package funds

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mwhitfield/ria-analyst/internal/llm"
)

// WebsiteAnalysis is the per-URL summary fed into matching.
type WebsiteAnalysis struct {
	URL              string   `json:"url"`
	InvestmentThemes []string `json:"investment_themes"`
	KeyPoints        []string `json:"key_points"`
	Summary          string   `json:"summary"`
}

// RIAProfile aggregates everything known about the advisor for matching.
type RIAProfile struct {
	WebsiteAnalyses []WebsiteAnalysis `json:"website_analyses"`
	AUMSummary      string            `json:"aum_summary,omitempty"`
	FeesSummary     string            `json:"fees_summary,omitempty"`
	MeetingNotes    string            `json:"meeting_notes,omitempty"`
}

// Match is one fund's compatibility assessment.
type Match struct {
	FundName  string   `json:"fund_name"`
	Score     float64  `json:"score"`
	Rationale string   `json:"rationale"`
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

const matchPrompt = `You are an expert investment consultant tasked with matching an RIA to suitable mutual funds.

RIA Information:
%s

Available Mutual Funds:
%s

Analyze the compatibility between the RIA and each fund based on:
1. AUM Compatibility (size appropriateness)
2. Fee Structure Alignment
3. Client Type Match
4. Investment Philosophy Alignment
5. Operational Fit

For each fund, provide a match score (1-5, where 5 is best), a detailed rationale, key strengths of the match, and potential concerns.

Return the analysis in the following JSON format, ordered by highest to lowest score:
{"matches": [{"fund_name": "string", "score": 0.0, "rationale": "string", "strengths": ["string"], "concerns": ["string"]}]}

Focus on practical business considerations and strategic fit. Respond with JSON only.`

// Matcher scores the fixed catalog against an RIA profile with a chat model.
type Matcher struct {
	client llm.Client
	model  string
	funds  []MutualFund
	logger *zap.Logger
}

// NewMatcher builds a Matcher over the fixed catalog.
func NewMatcher(client llm.Client, model string, logger *zap.Logger) *Matcher {
	return &Matcher{client: client, model: model, funds: Catalog(), logger: logger}
}

// Match returns fund matches ordered by score. A transport failure is an
// error; unparseable model output yields an empty slice with the raw payload
// logged for inspection.
func (m *Matcher) Match(ctx context.Context, profile RIAProfile) ([]Match, error) {
	riaJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal ria profile: %w", err)
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(matchPrompt, riaJSON, m.describeFunds()),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("match funds: %w", err)
	}
	if len(resp.Choices) == 0 {
		m.logger.Error("model returned no choices for fund matching")
		return []Match{}, nil
	}

	raw := llm.StripFences(resp.Choices[0].Message.Content)
	var parsed struct {
		Matches []Match `json:"matches"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		m.logger.Error("model output was not valid match JSON",
			zap.Error(err), zap.String("raw", raw))
		return []Match{}, nil
	}

	sort.SliceStable(parsed.Matches, func(i, j int) bool {
		return parsed.Matches[i].Score > parsed.Matches[j].Score
	})
	return parsed.Matches, nil
}

func (m *Matcher) describeFunds() string {
	var b strings.Builder
	for _, fund := range m.funds {
		attrs, _ := json.MarshalIndent(fund.KeyAttributes, "", "  ")
		fmt.Fprintf(&b, "Fund: %s\nDescription: %s\nAttributes: %s\n\n",
			fund.Name, fund.Description, attrs)
	}
	return b.String()
}
