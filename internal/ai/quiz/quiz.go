// Package quiz turns raw model output into a validated, never-empty quiz.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/edubot-backend/internal/ai/gateway"
	"github.com/yungbote/edubot-backend/internal/ai/sanitize"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/observability"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

// ErrValidation means the output parsed but no element survived validation.
var ErrValidation = errors.New("quiz validation failed")

const (
	FallbackQuestion    = "We could not process this content. Please try again with a different text or file."
	FallbackExplanation = "The question generator returned an unusable response."
)

var fallbackOptions = []string{"A) Try again", "B) -", "C) -", "D) -"}

// Generator is the part of the AI gateway the builder needs.
type Generator interface {
	GenerateQuiz(ctx context.Context, source string, count int, difficulty domain.Difficulty) (string, error)
	GenerateQuizFromAttachment(ctx context.Context, data []byte, mimeType string, count int, difficulty domain.Difficulty) (string, error)
}

// Source is either plain text or a binary attachment.
type Source struct {
	Text       string
	Attachment *gateway.Attachment
}

type Result struct {
	Quiz     domain.Quiz
	Fallback bool
	// Dropped counts elements rejected by validation.
	Dropped int
	// Cause is set when Fallback is true.
	Cause error
}

type Builder struct {
	log     *logger.Logger
	gen     Generator
	metrics *observability.Metrics
}

func NewBuilder(log *logger.Logger, gen Generator, metrics *observability.Metrics) *Builder {
	return &Builder{log: log.With("service", "QuizBuilder"), gen: gen, metrics: metrics}
}

// Build never fails: any error yields the single-question fallback quiz.
func (b *Builder) Build(ctx context.Context, src Source, count int, difficulty domain.Difficulty) domain.Quiz {
	return b.BuildResult(ctx, src, count, difficulty).Quiz
}

func (b *Builder) BuildResult(ctx context.Context, src Source, count int, difficulty domain.Difficulty) Result {
	count = gateway.NormalizeCount(count)

	var raw string
	var err error
	if src.Attachment != nil {
		raw, err = b.gen.GenerateQuizFromAttachment(ctx, src.Attachment.Data, src.Attachment.MIMEType, count, difficulty)
	} else {
		raw, err = b.gen.GenerateQuiz(ctx, src.Text, count, difficulty)
	}
	if err != nil {
		return b.fallback(err, 0, "")
	}

	items, err := parse(raw)
	if err != nil {
		return b.fallback(err, 0, raw)
	}
	quiz, dropped := Validate(items, count)
	if len(quiz) == 0 {
		return b.fallback(fmt.Errorf("%w: %d of %d questions invalid", ErrValidation, dropped, len(items)), dropped, raw)
	}
	if dropped > 0 {
		b.log.Info("Dropped invalid quiz questions", "dropped", dropped, "kept", len(quiz))
	}
	b.metrics.ObserveQuizBuild(false, dropped)
	return Result{Quiz: quiz, Dropped: dropped}
}

func (b *Builder) fallback(cause error, dropped int, raw string) Result {
	b.log.Warn("Quiz generation fell back",
		"cause", causeLabel(cause),
		"error", cause,
		"raw", gateway.Snippet(raw),
	)
	b.metrics.ObserveQuizBuild(true, dropped)
	return Result{Quiz: Fallback(), Fallback: true, Dropped: dropped, Cause: cause}
}

func causeLabel(err error) string {
	switch {
	case errors.Is(err, gateway.ErrTransport):
		return "transport_failure"
	case errors.Is(err, sanitize.ErrMalformedAIOutput):
		return "malformed_ai_output"
	case errors.Is(err, ErrValidation):
		return "validation_failure"
	default:
		return "unknown"
	}
}

// Fallback is structurally valid so clients can always render it.
func Fallback() domain.Quiz {
	return domain.Quiz{{
		Question:    FallbackQuestion,
		Options:     append([]string(nil), fallbackOptions...),
		Answer:      fallbackOptions[0],
		Explanation: FallbackExplanation,
	}}
}

// IsFallback reports whether q is the fallback sentinel.
func IsFallback(q domain.Quiz) bool {
	return len(q) == 1 && q[0].Question == FallbackQuestion
}

// parse accepts a bare array or a {"questions": [...]} envelope.
func parse(raw string) ([]json.RawMessage, error) {
	items, err := sanitize.Decode[[]json.RawMessage](raw, sanitize.Array)
	if err == nil {
		return items, nil
	}
	env, envErr := sanitize.Decode[struct {
		Questions []json.RawMessage `json:"questions"`
	}](raw, sanitize.Object)
	if envErr == nil && len(env.Questions) > 0 {
		return env.Questions, nil
	}
	return nil, err
}

// Validate keeps well-formed questions in order, trimming strings and capping
// the result at count. Invalid elements are dropped, never repaired.
func Validate(items []json.RawMessage, count int) (domain.Quiz, int) {
	out := make(domain.Quiz, 0, len(items))
	dropped := 0
	for _, item := range items {
		var q domain.QuizQuestion
		if err := json.Unmarshal(item, &q); err != nil {
			dropped++
			continue
		}
		q = normalize(q)
		if !valid(q) {
			dropped++
			continue
		}
		out = append(out, q)
	}
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out, dropped
}

func normalize(q domain.QuizQuestion) domain.QuizQuestion {
	q.Question = strings.TrimSpace(q.Question)
	q.Answer = strings.TrimSpace(q.Answer)
	q.Explanation = strings.TrimSpace(q.Explanation)
	opts := make([]string, len(q.Options))
	for i, o := range q.Options {
		opts[i] = strings.TrimSpace(o)
	}
	q.Options = opts
	return q
}

func valid(q domain.QuizQuestion) bool {
	if q.Question == "" || q.Explanation == "" || len(q.Options) != domain.OptionCount {
		return false
	}
	for _, o := range q.Options {
		if o == "" {
			return false
		}
	}
	return q.HasAnswer()
}
