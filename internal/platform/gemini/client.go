package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yungbote/edubot-backend/internal/platform/httpx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-2.5-flash"
	// MaxInlineSize is the largest blob sent inline with a request.
	MaxInlineSize = 20 * 1024 * 1024
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxRetries  int
}

// Client wraps the Gemini client. A GenerativeModel is built per call since the
// system instruction and MIME type vary by use case.
type Client struct {
	log         *logger.Logger
	client      *genai.Client
	model       string
	temperature float32
	retry       httpx.RetryPolicy
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	retry := httpx.DefaultRetryPolicy()
	if cfg.MaxRetries >= 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	retry.Retryable = isRetryable
	return &Client{
		log:         log.With("client", "GeminiClient", "model", model),
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		retry:       retry,
	}, nil
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GenerateText sends a plain prompt and returns the concatenated text parts.
func (c *Client) GenerateText(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	return c.generate(ctx, system, jsonMode, genai.Text(prompt))
}

// GenerateWithFile sends the prompt plus one inline blob (image or pdf).
func (c *Client) GenerateWithFile(ctx context.Context, system, prompt string, data []byte, mimeType string, jsonMode bool) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("gemini: empty attachment")
	}
	if len(data) > MaxInlineSize {
		return "", fmt.Errorf("gemini: attachment too large (%d bytes)", len(data))
	}
	return c.generate(ctx, system, jsonMode, genai.Text(prompt), genai.Blob{MIMEType: mimeType, Data: data})
}

func (c *Client) generate(ctx context.Context, system string, jsonMode bool, parts ...genai.Part) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.temperature)
	if s := strings.TrimSpace(system); s != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(s)}}
	}
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}

	var out string
	start := time.Now()
	err := httpx.Retry(ctx, c.log, "gemini.generate", c.retry, func(ctx context.Context) error {
		resp, err := model.GenerateContent(ctx, parts...)
		if err != nil {
			return wrapErr(err)
		}
		if resp.UsageMetadata != nil {
			c.log.Debug("Gemini token usage",
				"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
				"candidate_tokens", resp.UsageMetadata.CandidatesTokenCount,
			)
		}
		text, finish := extractText(resp)
		if text == "" {
			return fmt.Errorf("gemini: empty response (finish_reason=%s)", finish)
		}
		if finish != genai.FinishReasonStop && finish != genai.FinishReasonUnspecified {
			c.log.Warn("Gemini response did not finish cleanly", "finish_reason", finish.String())
		}
		out = text
		return nil
	})
	if err != nil {
		c.log.Warn("Gemini request failed", "duration", time.Since(start).String(), "error", err)
		return "", err
	}
	return out, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, genai.FinishReason) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", genai.FinishReasonUnspecified
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", cand.FinishReason
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String()), cand.FinishReason
}

// StatusError carries the HTTP status of a failed API call.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string       { return fmt.Sprintf("gemini: status %d: %v", e.Code, e.Err) }
func (e *StatusError) Unwrap() error       { return e.Err }
func (e *StatusError) HTTPStatusCode() int { return e.Code }

func wrapErr(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &StatusError{Code: gerr.Code, Err: err}
	}
	return err
}

func isRetryable(err error) bool {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return false
	}
	return httpx.IsRetryableError(err)
}
