// Package advfiling downloads an advisor's regulatory filings (Form ADV and
// the relationship summary), slices the relevant sections out of the PDF
// text by literal markers, and summarizes them with a chat model.
package advfiling

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mwhitfield/ria-analyst/internal/llm"
)

// Content carries the per-filing summaries. Either summary may be empty when
// its section could not be located.
type Content struct {
	URL         string `json:"url"`
	AUMSummary  string `json:"aum_summary,omitempty"`
	FeesSummary string `json:"fees_summary,omitempty"`
}

// Section markers are literal strings in the filing text; the slice is the
// substring between a section heading and the next section's heading.
const (
	advSectionStart = "Item 5 Information About Your Advisory Business"
	advSectionEnd   = "Item 6"
	crsSectionStart = "WHAT FEES WILL I PAY?"
	crsSectionEnd   = "WHAT ARE YOUR LEGAL OBLIGATIONS"
)

const summaryPrompt = `Analyze and summarize the following section from an SEC filing:

%s

Provide a clear, concise summary in the following format:

**Key Numerical Data**
• [List numerical data points here]

**Main Points**
• [List main points here]

**Important Disclosures**
• [List important disclosures here]

Ensure each point starts with a bullet point (•) and provides clear, specific information.`

var firmIDPattern = regexp.MustCompile(`/firm/summary/(\d+)`)

// Config sets the report URL templates and HTTP identity.
type Config struct {
	ADVReportURL string
	CRSReportURL string
	UserAgent    string
	Timeout      time.Duration
}

// Analyzer drives the filing pipeline: firm ID → report URLs → PDF download
// → marker slice → LLM summary.
type Analyzer struct {
	cfg    Config
	client llm.Client
	model  string
	http   *http.Client
	logger *zap.Logger
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer(cfg Config, client llm.Client, model string, logger *zap.Logger) *Analyzer {
	if cfg.ADVReportURL == "" {
		cfg.ADVReportURL = "https://reports.adviserinfo.sec.gov/reports/ADV/%s/PDF/%s.pdf"
	}
	if cfg.CRSReportURL == "" {
		cfg.CRSReportURL = "https://reports.adviserinfo.sec.gov/crs/crs_%s.pdf"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Analyzer{
		cfg:    cfg,
		client: client,
		model:  model,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// FirmID extracts the numeric firm identifier from an adviserinfo summary URL.
func FirmID(summaryURL string) (string, bool) {
	m := firmIDPattern.FindStringSubmatch(summaryURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ReportURLs constructs the ADV and CRS report URLs for a firm ID.
func (a *Analyzer) ReportURLs(firmID string) (advURL, crsURL string) {
	return fmt.Sprintf(a.cfg.ADVReportURL, firmID, firmID), fmt.Sprintf(a.cfg.CRSReportURL, firmID)
}

// Analyze runs the full filing pipeline for an adviserinfo summary URL.
// A failed report leaves that section's summary empty; the call fails only
// when the URL carries no firm ID or neither report could be analyzed.
func (a *Analyzer) Analyze(ctx context.Context, summaryURL string) (Content, error) {
	firmID, ok := FirmID(summaryURL)
	if !ok {
		return Content{}, fmt.Errorf("no firm id in url %q", summaryURL)
	}
	advURL, crsURL := a.ReportURLs(firmID)
	a.logger.Info("analyzing filing",
		zap.String("firm_id", firmID),
		zap.String("adv_url", advURL),
		zap.String("crs_url", crsURL),
	)

	content := Content{URL: summaryURL}
	if summary, err := a.summarizeReport(ctx, advURL, advSectionStart, advSectionEnd); err != nil {
		a.logger.Warn("adv report analysis failed", zap.String("url", advURL), zap.Error(err))
	} else {
		content.AUMSummary = summary
	}
	if summary, err := a.summarizeReport(ctx, crsURL, crsSectionStart, crsSectionEnd); err != nil {
		a.logger.Warn("crs report analysis failed", zap.String("url", crsURL), zap.Error(err))
	} else {
		content.FeesSummary = summary
	}

	if content.AUMSummary == "" && content.FeesSummary == "" {
		return Content{}, fmt.Errorf("filing %s: no section could be analyzed", summaryURL)
	}
	return content, nil
}

func (a *Analyzer) summarizeReport(ctx context.Context, reportURL, startMarker, endMarker string) (string, error) {
	data, err := a.download(ctx, reportURL)
	if err != nil {
		return "", err
	}
	text, err := extractText(data)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	section, ok := SliceSection(text, startMarker, endMarker)
	if !ok {
		return "", fmt.Errorf("section %q not found", startMarker)
	}
	return a.summarize(ctx, section)
}

// SliceSection returns the substring between the literal start marker and the
// first occurrence of the end marker after it. The start marker is included,
// matching how the section heading reads in the filing.
func SliceSection(text, startMarker, endMarker string) (string, bool) {
	start := strings.Index(text, startMarker)
	if start < 0 {
		return "", false
	}
	end := strings.Index(text[start:], endMarker)
	if end < 0 {
		return "", false
	}
	return text[start : start+end], true
}

func (a *Analyzer) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new report request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download report: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			a.logger.Debug("close report body", zap.Error(cerr))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download report: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read report body: %w", err)
	}
	return data, nil
}

func extractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}

func (a *Analyzer) summarize(ctx context.Context, section string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(summaryPrompt, section)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarize section: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarize section: model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
