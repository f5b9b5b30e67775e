// Package gatewaytest provides a scripted gateway.Provider for tests.
package gatewaytest

import (
	"context"
	"sync"
	"testing"

	"github.com/yungbote/edubot-backend/internal/ai/gateway"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

type Call struct {
	System   string
	Prompt   string
	Data     []byte
	MIMEType string
	JSON     bool
}

type Provider struct {
	// Respond produces the reply for each call. Nil returns an empty string.
	Respond func(call Call) (string, error)

	mu    sync.Mutex
	calls []Call
}

func Static(text string) *Provider {
	return &Provider{Respond: func(Call) (string, error) { return text, nil }}
}

func Failing(err error) *Provider {
	return &Provider{Respond: func(Call) (string, error) { return "", err }}
}

func (p *Provider) Name() string { return "fake" }

func (p *Provider) GenerateText(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	return p.do(Call{System: system, Prompt: prompt, JSON: jsonMode})
}

func (p *Provider) GenerateWithFile(ctx context.Context, system, prompt string, data []byte, mimeType string, jsonMode bool) (string, error) {
	return p.do(Call{System: system, Prompt: prompt, Data: data, MIMEType: mimeType, JSON: jsonMode})
}

func (p *Provider) do(c Call) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
	if p.Respond == nil {
		return "", nil
	}
	return p.Respond(c)
}

func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// New builds a Gateway over p with the embedded prompts.
func New(tb testing.TB, p gateway.Provider) *gateway.Gateway {
	tb.Helper()
	prompts, err := gateway.LoadPrompts()
	if err != nil {
		tb.Fatalf("load prompts: %v", err)
	}
	return gateway.New(logger.Nop(), p, prompts, nil, gateway.Config{Language: "English"})
}
