// Package llm is the single gateway to the generative-AI provider. It
// performs no interpretation of the generated text; parsing lives in the
// parse package.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	// ErrNoAPIKey and ErrEmptyPrompt are local validation failures; no
	// network call is attempted for them.
	ErrNoAPIKey    = errors.New("no API key provided")
	ErrEmptyPrompt = errors.New("no prompt provided")

	// ErrGateway wraps every provider-side failure: network errors,
	// non-2xx responses and malformed provider payloads.
	ErrGateway = errors.New("AI request failed")
)

const (
	// Generation parameters are fixed configuration, matching what the
	// product has always sent; they are not negotiated per request.
	temperature     = 0.7
	topK            = 40
	topP            = 0.95
	maxOutputTokens = 2048

	maxAttempts = 3
)

type Config struct {
	Provider    string // "gemini" or "openai"
	GeminiModel string
	OpenAIModel string
	Timeout     time.Duration
}

type Client struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		log: slog.With("component", "llm", "provider", cfg.Provider),
	}
}

// Generate sends one prompt with the given credential and returns the raw
// generated text. Transient provider failures are retried with exponential
// backoff; each attempt gets its own timeout.
func (c *Client) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if apiKey == "" {
		return "", ErrNoAPIKey
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		start := time.Now()
		text, err := c.call(callCtx, apiKey, prompt)
		cancel()

		if err == nil {
			c.log.Info("AI call completed",
				"attempt", attempt,
				"duration_ms", time.Since(start).Milliseconds())
			return text, nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrGateway, err)
		}
		c.log.Warn("AI call failed, retrying", "attempt", attempt, "error", err)
		if attempt < maxAttempts {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrGateway, ctx.Err())
			}
		}
	}
	return "", fmt.Errorf("%w: %v", ErrGateway, lastErr)
}

func (c *Client) call(ctx context.Context, apiKey, prompt string) (string, error) {
	if c.cfg.Provider == "openai" {
		return c.callOpenAI(ctx, apiKey, prompt)
	}
	return c.callGemini(ctx, apiKey, prompt)
}

func (c *Client) callGemini(ctx context.Context, apiKey, prompt string) (string, error) {
	// The client is built per call because the credential differs per
	// user (personal vs shared key).
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.cfg.GeminiModel)
	model.SetTemperature(temperature)
	model.SetTopK(topK)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(maxOutputTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return "", fmt.Errorf("Gemini API error: %s: %w", apiErr.Message, err)
		}
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	if resp.UsageMetadata != nil {
		c.log.Debug("token usage",
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response format from Gemini API")
	}
	return string(text), nil
}

func (c *Client) callOpenAI(ctx context.Context, apiKey, prompt string) (string, error) {
	client := openai.NewClient(apiKey)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.OpenAIModel,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI API")
	}
	return resp.Choices[0].Message.Content, nil
}

func retryable(err error) bool {
	if errors.Is(err, ErrNoAPIKey) || errors.Is(err, ErrEmptyPrompt) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	var oaiErr *openai.APIError
	if errors.As(err, &oaiErr) {
		return oaiErr.HTTPStatusCode == 429 || oaiErr.HTTPStatusCode >= 500
	}
	// transport-level failure or per-attempt timeout
	return !errors.Is(err, context.Canceled)
}
