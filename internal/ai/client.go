package ai

import (
	"context"
	"encoding/json"
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/sashabaranov/go-openai"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConfigured means no API key is available.
	ErrNotConfigured = errors.NewSentinel("summarization service not configured")
	// ErrUnavailable means the service could not be reached or answered with an error, including timeouts.
	ErrUnavailable = errors.NewSentinel("summarization service unavailable")
	// ErrUnparseable means the service answered with content that could not be used.
	ErrUnparseable = errors.NewSentinel("summarization service returned unparseable content")
)

type Config struct {
	APIKey  string        `env:"OPENAI_API_KEY" envDefault:""`
	Model   string        `env:"DFIRCASE_AI_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string        `env:"DFIRCASE_AI_BASE_URL" envDefault:""`
	Timeout time.Duration `env:"DFIRCASE_AI_TIMEOUT" envDefault:"60s"`
}

// Client summarizes cases with an OpenAI compatible chat completion API.
type Client struct {
	client  *openai.Client
	steps   *catalog.Catalog
	logger  *slog.Logger
	model   string
	timeout time.Duration
}

func NewClient(cfg Config, steps *catalog.Catalog, logger *slog.Logger) *Client {
	var client *openai.Client
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		clientConfig.HTTPClient = &http.Client{} //nolint:exhaustruct // the request context bounds each call
		client = openai.NewClientWithConfig(clientConfig)
	}
	return &Client{
		client:  client,
		steps:   steps,
		logger:  logger.With("source", "ai.Client"),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

const MaxTokens = 4096

func (c *Client) complete(
	ctx context.Context,
	prompt string,
	format *openai.ChatCompletionResponseFormat,
) (string, error) {
	if c.client == nil {
		return "", errors.Wrap(ErrNotConfigured, "create chat completion")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:          c.model,
			MaxTokens:      MaxTokens,
			ResponseFormat: format,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt}, //nolint:exhaustruct // plain text message
			},
		},
	)
	if err != nil {
		return "", errors.Wrap(errors.Join(ErrUnavailable, err), "create chat completion",
			slog.String("model", c.model), slog.Duration("elapsed", time.Since(start)))
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "chat completion finished",
		slog.String("model", c.model),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("total_tokens", completion.Usage.TotalTokens))

	if len(completion.Choices) == 0 {
		return "", errors.Wrap(ErrUnparseable, "no choices in completion")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errors.Wrap(ErrUnparseable, "empty completion")
	}
	return content, nil
}

type analysisResponse struct {
	Summary         string   `json:"summary"`
	ThreatLevel     string   `json:"threatLevel"`
	KeyIndicators   []string `json:"keyIndicators"`
	GapAnalysis     []string `json:"gapAnalysis"`
	Recommendations []string `json:"recommendations"`
}

// Analyze asks for a structured assessment of the case.
func (c *Client) Analyze(ctx context.Context, record *models.Case) (models.AIReport, error) {
	content, err := c.complete(ctx, analysisPrompt(record, c.steps), &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return models.AIReport{}, errors.Wrap(err, "analyze case", slog.String("case_id", record.CaseID))
	}

	var response analysisResponse
	if err = json.Unmarshal([]byte(stripCodeFence(content)), &response); err != nil {
		return models.AIReport{}, errors.Wrap(errors.Join(ErrUnparseable, err), "decode analysis",
			slog.String("case_id", record.CaseID))
	}
	if strings.TrimSpace(response.Summary) == "" {
		return models.AIReport{}, errors.Wrap(ErrUnparseable, "analysis without summary",
			slog.String("case_id", record.CaseID))
	}
	return models.AIReport{
		Summary:         response.Summary,
		ThreatLevel:     NormalizeThreatLevel(response.ThreatLevel),
		KeyIndicators:   nonNil(response.KeyIndicators),
		GapAnalysis:     nonNil(response.GapAnalysis),
		Recommendations: nonNil(response.Recommendations),
		FinalReport:     "",
	}, nil
}

// ComposeFinalReport asks for a complete Markdown report of the case.
func (c *Client) ComposeFinalReport(ctx context.Context, record *models.Case) (string, error) {
	content, err := c.complete(ctx, finalReportPrompt(record, c.steps), nil)
	if err != nil {
		return "", errors.Wrap(err, "compose final report", slog.String("case_id", record.CaseID))
	}
	return content, nil
}

// stripCodeFence removes a Markdown code fence some models wrap JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

var threatLevels = []string{"Low", "Medium", "High", "Critical"}

// NormalizeThreatLevel capitalizes the known threat levels and keeps anything else verbatim.
func NormalizeThreatLevel(level string) string {
	level = strings.TrimSpace(level)
	for _, known := range threatLevels {
		if strings.EqualFold(level, known) {
			return known
		}
	}
	return level
}
