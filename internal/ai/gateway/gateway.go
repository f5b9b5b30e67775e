// Package gateway renders prompts for each use case and sends them to the
// configured model provider. It is stateless apart from the provider client.
package gateway

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/observability"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const (
	MaxSourceRunes   = 15000
	DefaultQuizCount = 5
	MaxQuizCount     = 20
	// ChatHistoryWindow is how many trailing messages are sent as chat context.
	ChatHistoryWindow = 10
	DefaultLanguage   = "Spanish"
	logSnippetRunes   = 300
)

const (
	UseCaseGenerate       = "generate"
	UseCaseLesson         = "lesson"
	UseCaseQuiz           = "quiz"
	UseCaseQuizAttachment = "quiz_attachment"
	UseCaseFeedback       = "feedback"
	UseCaseTutor          = "tutor"
	UseCaseChat           = "chat"
	UseCaseEvaluate       = "evaluate"
)

// Provider is a model backend. Implementations retry transient failures
// themselves.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, system, prompt string, jsonMode bool) (string, error)
	GenerateWithFile(ctx context.Context, system, prompt string, data []byte, mimeType string, jsonMode bool) (string, error)
}

type Attachment struct {
	Data     []byte
	MIMEType string
}

type Config struct {
	Language string
	Timeout  time.Duration
}

type Gateway struct {
	log      *logger.Logger
	provider Provider
	prompts  *Prompts
	metrics  *observability.Metrics
	language string
	timeout  time.Duration
}

func New(log *logger.Logger, provider Provider, prompts *Prompts, metrics *observability.Metrics, cfg Config) *Gateway {
	lang := strings.TrimSpace(cfg.Language)
	if lang == "" {
		lang = DefaultLanguage
	}
	return &Gateway{
		log:      log.With("service", "AIGateway", "provider", provider.Name()),
		provider: provider,
		prompts:  prompts,
		metrics:  metrics,
		language: lang,
		timeout:  cfg.Timeout,
	}
}

func (g *Gateway) Language() string { return g.language }

// Generate sends a free-form prompt with the EduBot system instruction.
func (g *Gateway) Generate(ctx context.Context, prompt string, att *Attachment) (string, error) {
	return g.call(ctx, UseCaseGenerate, prompt, att, false)
}

func (g *Gateway) GenerateLesson(ctx context.Context, topic string, difficulty domain.Difficulty) (string, error) {
	prompt, err := g.prompts.render(tmplLesson, g.data(promptData{Topic: topic, Difficulty: difficulty}))
	if err != nil {
		return "", err
	}
	return g.call(ctx, UseCaseLesson, prompt, nil, false)
}

// GenerateQuiz returns the raw model output; callers sanitize and validate it.
func (g *Gateway) GenerateQuiz(ctx context.Context, source string, count int, difficulty domain.Difficulty) (string, error) {
	prompt, err := g.prompts.render(tmplQuiz, g.data(promptData{
		Source:     TruncateRunes(source, MaxSourceRunes),
		Count:      NormalizeCount(count),
		Difficulty: difficulty,
	}))
	if err != nil {
		return "", err
	}
	return g.call(ctx, UseCaseQuiz, prompt, nil, true)
}

func (g *Gateway) GenerateQuizFromAttachment(ctx context.Context, data []byte, mimeType string, count int, difficulty domain.Difficulty) (string, error) {
	prompt, err := g.prompts.render(tmplQuizAttachment, g.data(promptData{
		Count:      NormalizeCount(count),
		Difficulty: difficulty,
	}))
	if err != nil {
		return "", err
	}
	return g.call(ctx, UseCaseQuizAttachment, prompt, &Attachment{Data: data, MIMEType: mimeType}, true)
}

func (g *Gateway) GenerateFeedback(ctx context.Context, score, total int, topic string) (string, error) {
	prompt, err := g.prompts.render(tmplFeedback, g.data(promptData{Score: score, Total: total, Topic: topic}))
	if err != nil {
		return "", err
	}
	return g.call(ctx, UseCaseFeedback, prompt, nil, false)
}

func (g *Gateway) GenerateTutorAnswer(ctx context.Context, question, passage string) (string, error) {
	prompt, err := g.prompts.render(tmplTutor, g.data(promptData{
		Question: question,
		Context:  TruncateRunes(passage, MaxSourceRunes),
	}))
	if err != nil {
		return "", err
	}
	return g.call(ctx, UseCaseTutor, prompt, nil, false)
}

// Chat answers the last user message given the trailing history window.
func (g *Gateway) Chat(ctx context.Context, history []domain.Message) (string, error) {
	if len(history) > ChatHistoryWindow {
		history = history[len(history)-ChatHistoryWindow:]
	}
	prompt, err := g.prompts.render(tmplChat, g.data(promptData{History: history}))
	if err != nil {
		return "", err
	}
	return g.call(ctx, UseCaseChat, prompt, nil, false)
}

func (g *Gateway) Evaluate(ctx context.Context, text, question, answer string) (string, error) {
	prompt, err := g.prompts.render(tmplEvaluate, g.data(promptData{
		Source:   TruncateRunes(text, MaxSourceRunes),
		Question: question,
		Answer:   answer,
	}))
	if err != nil {
		return "", err
	}
	return g.call(ctx, UseCaseEvaluate, prompt, nil, true)
}

func (g *Gateway) data(d promptData) promptData {
	d.Language = g.language
	return d
}

func (g *Gateway) call(ctx context.Context, useCase, prompt string, att *Attachment, jsonMode bool) (string, error) {
	system, err := g.prompts.render(tmplSystem, g.data(promptData{}))
	if err != nil {
		return "", err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	ctx, span := observability.Tracer("ai").Start(ctx, "ai.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", g.provider.Name()),
		attribute.String("ai.use_case", useCase),
		attribute.Bool("ai.attachment", att != nil),
	)

	start := time.Now()
	var out string
	if att != nil {
		out, err = g.provider.GenerateWithFile(ctx, system, prompt, att.Data, att.MIMEType, jsonMode)
	} else {
		out, err = g.provider.GenerateText(ctx, system, prompt, jsonMode)
	}
	out = strings.TrimSpace(out)

	var gerr *Error
	switch {
	case err != nil:
		gerr = &Error{Kind: classify(err), Provider: g.provider.Name(), UseCase: useCase, Err: err}
	case out == "":
		gerr = &Error{Kind: KindEmpty, Provider: g.provider.Name(), UseCase: useCase}
	}

	status := "ok"
	if gerr != nil {
		status = gerr.Kind.String()
		span.RecordError(gerr)
		span.SetStatus(codes.Error, status)
		g.log.Warn("AI request failed", "use_case", useCase, "kind", status, "error", gerr.Err)
	}
	g.metrics.ObserveAIRequest(g.provider.Name(), useCase, status, time.Since(start))
	if gerr != nil {
		return "", gerr
	}
	return out, nil
}

// NormalizeCount applies the default and clamps to 1..MaxQuizCount.
func NormalizeCount(n int) int {
	if n <= 0 {
		return DefaultQuizCount
	}
	if n > MaxQuizCount {
		return MaxQuizCount
	}
	return n
}

func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// Snippet shortens raw model output for logs.
func Snippet(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= logSnippetRunes {
		return s
	}
	return TruncateRunes(s, logSnippetRunes) + "..."
}
