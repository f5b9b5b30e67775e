package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yungbote/edubot-backend/internal/ai/gateway"
	"github.com/yungbote/edubot-backend/internal/ai/quiz"
	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/apierr"
	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const (
	historyLimit   = 20
	maxTopicRunes  = 200
	pastedTopic    = "Pasted text"
	fileTopicLabel = "File: "
	// attachmentContent is stored as lesson content when the file could not be transcribed.
	attachmentContent = "[Attachment analyzed]"
	transcribePrompt  = "Transcribe the readable text of the attached file exactly as written, in its original language. Return only the text, with no commentary."
	// TutorApology is returned when the tutor model call fails.
	TutorApology = "Sorry, I could not answer that right now. Please try again."
)

// LessonRequest holds the options shared by every quiz entry point.
type LessonRequest struct {
	Count      int
	Difficulty string
	Emails     []string
}

type UploadInput struct {
	Filename string
	Data     []byte
	LessonRequest
}

type LessonResult struct {
	LessonID uuid.UUID   `json:"lesson_id"`
	Topic    string      `json:"topic"`
	Filename string      `json:"filename,omitempty"`
	Text     string      `json:"text,omitempty"`
	Quiz     domain.Quiz `json:"quiz"`
	Fallback bool        `json:"fallback"`
	Report   Report      `json:"distribution"`
}

type LessonService interface {
	Upload(ctx context.Context, in UploadInput) (*LessonResult, error)
	AnalyzeText(ctx context.Context, text string, req LessonRequest) (*LessonResult, error)
	CreateLesson(ctx context.Context, topic string, req LessonRequest) (*LessonResult, error)
	AskTutor(ctx context.Context, question, passage string) (string, error)
	ListHistory(ctx context.Context) ([]*domain.LessonSummary, error)
	GetHistory(ctx context.Context, id uuid.UUID) (*domain.LessonRecord, error)
	DeleteHistory(ctx context.Context, id uuid.UUID) error
	ListAssigned(ctx context.Context) ([]*domain.LessonSummary, error)
	ListRecipients(ctx context.Context, id uuid.UUID) ([]*domain.LessonSummary, error)
}

type lessonService struct {
	log          *logger.Logger
	ai           *gateway.Gateway
	quizzes      *quiz.Builder
	distribution DistributionService
	lessonRepo   repos.LessonRecordRepo
}

func NewLessonService(log *logger.Logger, ai *gateway.Gateway, quizzes *quiz.Builder, distribution DistributionService, lessonRepo repos.LessonRecordRepo) LessonService {
	return &lessonService{
		log:          log.With("service", "LessonService"),
		ai:           ai,
		quizzes:      quizzes,
		distribution: distribution,
		lessonRepo:   lessonRepo,
	}
}

func caller(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", "not signed in")
	}
	return rd, nil
}

func (ls *lessonService) Upload(ctx context.Context, in UploadInput) (*LessonResult, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	ex, err := Extract(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}
	content := ex.Text
	src := quiz.Source{Text: ex.Text}
	if ex.Attachment != nil {
		content = ls.transcribe(ctx, ex.Attachment)
		src = quiz.Source{Attachment: ex.Attachment}
	}
	res, err := ls.buildAndDistribute(ctx, rd, src, content, fileTopicLabel+in.Filename, domain.LessonSourceFile, in.LessonRequest)
	if err != nil {
		return nil, err
	}
	res.Filename = in.Filename
	res.Text = content
	return res, nil
}

// transcribe keeps the file's readable text as lesson content. The quiz is
// still built from the file itself.
func (ls *lessonService) transcribe(ctx context.Context, att *gateway.Attachment) string {
	text, err := ls.ai.Generate(ctx, transcribePrompt, att)
	text = strings.TrimSpace(text)
	if err != nil || utf8.RuneCountInString(text) < MinTextRunes {
		ls.log.Warn("Attachment transcription unavailable; storing placeholder", "mime_type", att.MIMEType, "error", err)
		return attachmentContent
	}
	return text
}

func (ls *lessonService) AnalyzeText(ctx context.Context, text string, req LessonRequest) (*LessonResult, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinTextRunes {
		return nil, apierr.BadRequest("text_too_short", "text must be at least %d characters", MinTextRunes)
	}
	return ls.buildAndDistribute(ctx, rd, quiz.Source{Text: text}, text, pastedTopic, domain.LessonSourceText, req)
}

// CreateLesson writes a lesson on the topic, then builds the quiz from that lesson text.
func (ls *lessonService) CreateLesson(ctx context.Context, topic string, req LessonRequest) (*LessonResult, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apierr.BadRequest("missing_topic", "topic is required")
	}
	if utf8.RuneCountInString(topic) > maxTopicRunes {
		return nil, apierr.BadRequest("topic_too_long", "topic exceeds %d characters", maxTopicRunes)
	}
	difficulty := domain.ParseDifficulty(req.Difficulty)
	text, err := ls.ai.GenerateLesson(ctx, topic, difficulty)
	if err != nil {
		return nil, apierr.New(502, "lesson_generation_failed", fmt.Errorf("generate lesson: %w", err))
	}
	res, err := ls.buildAndDistribute(ctx, rd, quiz.Source{Text: text}, text, TitleCase(topic), domain.LessonSourceTopic, req)
	if err != nil {
		return nil, err
	}
	res.Text = text
	return res, nil
}

func (ls *lessonService) buildAndDistribute(ctx context.Context, rd *ctxutil.RequestData, src quiz.Source, content, topic string, source domain.LessonSource, req LessonRequest) (*LessonResult, error) {
	built := ls.quizzes.BuildResult(ctx, src, req.Count, domain.ParseDifficulty(req.Difficulty))
	role, _ := domain.ParseRole(rd.Role)
	lessonID, report, err := ls.distribution.Distribute(ctx, DistributeInput{
		Content:          content,
		Quiz:             built.Quiz,
		Topic:            topic,
		Source:           source,
		CreatorID:        rd.UserID,
		CreatorEmail:     rd.Email,
		RecipientEmails:  req.Emails,
		CreatorIsTeacher: role.CanAssign(),
	})
	if err != nil {
		return nil, err
	}
	return &LessonResult{
		LessonID: lessonID,
		Topic:    topic,
		Quiz:     built.Quiz,
		Fallback: built.Fallback,
		Report:   report,
	}, nil
}

func (ls *lessonService) AskTutor(ctx context.Context, question, passage string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apierr.BadRequest("missing_question", "question is required")
	}
	answer, err := ls.ai.GenerateTutorAnswer(ctx, question, passage)
	if err != nil {
		ls.log.Warn("Tutor answer failed; sending apology", "error", err)
		return TutorApology, nil
	}
	return answer, nil
}

func (ls *lessonService) ListHistory(ctx context.Context) ([]*domain.LessonSummary, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return ls.lessonRepo.ListByUser(dbctx.Of(ctx), rd.UserID, historyLimit)
}

func (ls *lessonService) ListAssigned(ctx context.Context) ([]*domain.LessonSummary, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return ls.lessonRepo.ListAssigned(dbctx.Of(ctx), rd.UserID, historyLimit)
}

// ListRecipients returns the assigned copies of a lesson the caller created.
// Only the creator's own copy unlocks the listing.
func (ls *lessonService) ListRecipients(ctx context.Context, id uuid.UUID) ([]*domain.LessonSummary, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := ls.lessonRepo.GetForUser(dbctx.Of(ctx), rd.UserID, id)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	if rec == nil || rec.AssignedBy != nil {
		return nil, notFound("lesson_not_found", "lesson")
	}
	rows, err := ls.lessonRepo.ListByGeneration(dbctx.Of(ctx), rec.GenerationID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	out := make([]*domain.LessonSummary, 0, len(rows))
	for _, r := range rows {
		if r.ID == rec.ID {
			continue
		}
		out = append(out, r.Summary())
	}
	return out, nil
}

func (ls *lessonService) GetHistory(ctx context.Context, id uuid.UUID) (*domain.LessonRecord, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := ls.lessonRepo.GetForUser(dbctx.Of(ctx), rd.UserID, id)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	if rec == nil {
		return nil, notFound("lesson_not_found", "lesson")
	}
	return rec, nil
}

func (ls *lessonService) DeleteHistory(ctx context.Context, id uuid.UUID) error {
	rd, err := caller(ctx)
	if err != nil {
		return err
	}
	ok, err := ls.lessonRepo.DeleteForUser(dbctx.Of(ctx), rd.UserID, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if !ok {
		return notFound("lesson_not_found", "lesson")
	}
	return nil
}

// TitleCase capitalizes each word of a lesson topic. A Caser is stateful, so
// each call gets its own.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}
