package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/edubot-backend/internal/platform/httpx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const (
	ProviderName = "openai"
	DefaultModel = openai.GPT4oMini
)

// ErrUnsupportedAttachment is returned for attachment types the chat
// completions API cannot take inline.
var ErrUnsupportedAttachment = errors.New("openai: unsupported attachment type")

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxRetries  int
}

type Client struct {
	log         *logger.Logger
	api         *openai.Client
	model       string
	temperature float32
	retry       httpx.RetryPolicy
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if log == nil {
		log = logger.Nop()
	}
	oc := openai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
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
		log:         log.With("client", "OpenAIClient", "model", model),
		api:         openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
		retry:       retry,
	}, nil
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) Close() error { return nil }

// GenerateText runs a single system+user chat completion. JSON mode is not
// forwarded: the response_format object type rejects top-level arrays.
func (c *Client) GenerateText(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	msgs := systemMessages(system)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
	return c.complete(ctx, msgs)
}

// GenerateWithFile accepts images only; they are sent as base64 data URLs.
func (c *Client) GenerateWithFile(ctx context.Context, system, prompt string, data []byte, mimeType string, jsonMode bool) (string, error) {
	if !strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAttachment, mimeType)
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	msgs := systemMessages(system)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL,
				Detail: openai.ImageURLDetailAuto,
			}},
		},
	})
	return c.complete(ctx, msgs)
}

func systemMessages(system string) []openai.ChatCompletionMessage {
	if s := strings.TrimSpace(system); s != "" {
		return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: s}}
	}
	return nil
}

func (c *Client) complete(ctx context.Context, msgs []openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
	}
	var out string
	start := time.Now()
	err := httpx.Retry(ctx, c.log, "openai.chat", c.retry, func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return wrapErr(err)
		}
		c.log.Debug("OpenAI token usage",
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
		)
		if len(resp.Choices) == 0 {
			return fmt.Errorf("openai: no choices returned")
		}
		text := strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return fmt.Errorf("openai: empty response (finish_reason=%s)", resp.Choices[0].FinishReason)
		}
		out = text
		return nil
	})
	if err != nil {
		c.log.Warn("OpenAI request failed", "duration", time.Since(start).String(), "error", err)
		return "", err
	}
	return out, nil
}

// StatusError carries the HTTP status of a failed API call.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string       { return fmt.Sprintf("openai: status %d: %v", e.Code, e.Err) }
func (e *StatusError) Unwrap() error       { return e.Err }
func (e *StatusError) HTTPStatusCode() int { return e.Code }

func wrapErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Code: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &StatusError{Code: reqErr.HTTPStatusCode, Err: err}
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrUnsupportedAttachment) {
		return false
	}
	return httpx.IsRetryableError(err)
}
