package services

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/edubot-backend/internal/ai/gateway"
	"github.com/yungbote/edubot-backend/internal/ai/sanitize"
	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/observability"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const (
	DefaultFallbackFeedback = "Keep practicing."
	EvaluationErrorFeedback = "Technical error while evaluating the answer. Please try again."
	maxEvaluationScore      = 10
)

type SubmitScoreInput struct {
	// LessonID is optional; without it nothing is persisted.
	LessonID *uuid.UUID
	OwnerID  uuid.UUID
	Score    int
	Total    int
	Topic    string
}

type Evaluation struct {
	Score      int     `json:"score"`
	Feedback   string  `json:"feedback"`
	Correction *string `json:"correction"`
}

// evaluationWire tolerates fractional scores from the model.
type evaluationWire struct {
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback"`
	Correction *string `json:"correction"`
}

type ScoringService interface {
	// SubmitScore always returns feedback text. The score update only
	// touches a record owned by OwnerID.
	SubmitScore(ctx context.Context, in SubmitScoreInput) string
	EvaluateAnswer(ctx context.Context, text, question, answer string) Evaluation
}

type scoringService struct {
	log              *logger.Logger
	ai               *gateway.Gateway
	lessonRepo       repos.LessonRecordRepo
	metrics          *observability.Metrics
	fallbackFeedback string
}

func NewScoringService(log *logger.Logger, ai *gateway.Gateway, lessonRepo repos.LessonRecordRepo, metrics *observability.Metrics, fallbackFeedback string) ScoringService {
	if strings.TrimSpace(fallbackFeedback) == "" {
		fallbackFeedback = DefaultFallbackFeedback
	}
	return &scoringService{
		log:              log.With("service", "ScoringService"),
		ai:               ai,
		lessonRepo:       lessonRepo,
		metrics:          metrics,
		fallbackFeedback: fallbackFeedback,
	}
}

func (ss *scoringService) SubmitScore(ctx context.Context, in SubmitScoreInput) string {
	feedback, err := ss.ai.GenerateFeedback(ctx, in.Score, in.Total, in.Topic)
	if err != nil {
		ss.log.Warn("Feedback generation failed; using fallback", "error", err)
		feedback = ss.fallbackFeedback
	}
	if in.LessonID == nil || *in.LessonID == uuid.Nil {
		return feedback
	}

	ok, err := ss.lessonRepo.UpdateScoreForUser(dbctx.Of(ctx), in.OwnerID, *in.LessonID, repos.ScoreUpdate{
		Score:    in.Score,
		Total:    in.Total,
		Feedback: feedback,
	})
	switch {
	case err != nil:
		ss.log.Error("Score persistence failed", "lesson_id", *in.LessonID, "owner_id", in.OwnerID, "error", err)
		ss.metrics.ObserveScorePersist("error")
	case !ok:
		ss.log.Warn("Score not persisted: lesson missing or not owned by caller", "lesson_id", *in.LessonID, "owner_id", in.OwnerID)
		ss.metrics.ObserveScorePersist("no_match")
	default:
		ss.metrics.ObserveScorePersist("ok")
	}
	return feedback
}

func (ss *scoringService) EvaluateAnswer(ctx context.Context, text, question, answer string) Evaluation {
	raw, err := ss.ai.Evaluate(ctx, text, question, answer)
	if err != nil {
		ss.log.Warn("Evaluation request failed", "error", err)
		return evaluationFallback()
	}
	wire, err := sanitize.Decode[evaluationWire](raw, sanitize.Object)
	if err != nil {
		ss.log.Warn("Evaluation output malformed", "error", err, "raw", gateway.Snippet(raw))
		return evaluationFallback()
	}
	ev := Evaluation{Score: int(math.Round(wire.Score)), Feedback: wire.Feedback, Correction: wire.Correction}
	if ev.Score < 0 {
		ev.Score = 0
	}
	if ev.Score > maxEvaluationScore {
		ev.Score = maxEvaluationScore
	}
	ev.Feedback = strings.TrimSpace(ev.Feedback)
	if ev.Correction != nil {
		if c := strings.TrimSpace(*ev.Correction); c == "" || strings.EqualFold(c, "null") {
			ev.Correction = nil
		} else {
			ev.Correction = &c
		}
	}
	return ev
}

func evaluationFallback() Evaluation {
	return Evaluation{Score: 0, Feedback: EvaluationErrorFeedback, Correction: nil}
}
