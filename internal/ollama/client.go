package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/zombar/aidetect/internal/models"
)

const (
	DefaultModel   = "gpt-oss:20b"
	DefaultTimeout = 30 * time.Second

	// maxPromptTextLen bounds how much of the analyzed text is embedded
	// in the detection prompt.
	maxPromptTextLen = 2000
)

// Decoding parameters are part of the engine contract: judgments must be
// as deterministic as the model allows.
const (
	temperature   = 0.1
	topP          = 0.9
	repeatPenalty = 1.1
)

// ErrUnavailable marks transport-level failures talking to the model.
var ErrUnavailable = fmt.Errorf("llm adapter: endpoint unavailable")

// ErrUnparseable marks replies that defeated every parsing strategy.
var ErrUnparseable = fmt.Errorf("llm adapter: response unparseable")

// Client wraps the Ollama API client and issues the detection prompt.
type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// New creates a new Ollama-backed detection client.
func New(ollamaURL, model string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultModel
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("llm adapter: invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// Judge asks the model whether the text is AI-generated and parses the
// free-form reply through the strategy waterfall.
func (c *Client) Judge(ctx context.Context, text string) (*models.LLMJudgment, error) {
	reply, err := c.generate(ctx, detectionPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	judgment, err := ParseJudgment(reply)
	if err != nil {
		return nil, err
	}
	return judgment, nil
}

// Version probes the endpoint for liveness.
func (c *Client) Version(ctx context.Context) (string, error) {
	version, err := c.client.Version(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return version, nil
}

// generate issues a single non-streaming generate request with the fixed
// decoding parameters.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	slog.Debug("ollama: sending detection request", "model", c.model, "timeout", c.timeout)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: new(bool), // false
		Options: map[string]any{
			"temperature":    temperature,
			"top_p":          topP,
			"repeat_penalty": repeatPenalty,
		},
	}

	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	result := strings.TrimSpace(response.String())
	slog.Debug("ollama: response received", "chars", len(result))
	return result, nil
}

// detectionPrompt builds the fixed detection prompt around the truncated
// analyzed text.
func detectionPrompt(text string) string {
	if len(text) > maxPromptTextLen {
		text = text[:maxPromptTextLen]
	}

	return fmt.Sprintf(`Analyze the following text and determine whether it was written by an AI language model or a human. Consider writing patterns, vocabulary choices, content structure, hedging language, and the presence or absence of personal voice.

Return ONLY a JSON object with these keys:
- likelihood: integer 0-100, where 0 = definitely human and 100 = definitely AI
- confidence: integer 0-100, how reliable your likelihood estimate is
- reasoning: 2-3 sentences explaining your assessment
- key_indicators: array of strings naming the specific markers you found

Text to analyze: "%s"

JSON object:`, text)
}
