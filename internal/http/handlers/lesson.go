package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/edubot-backend/internal/http/response"
	"github.com/yungbote/edubot-backend/internal/services"
)

// multipartOverhead leaves room for form fields next to the file itself.
const multipartOverhead = 1 << 20

type LessonHandler struct {
	lessons services.LessonService
	scoring services.ScoringService
}

func NewLessonHandler(lessons services.LessonService, scoring services.ScoringService) *LessonHandler {
	return &LessonHandler{lessons: lessons, scoring: scoring}
}

type lessonRequestBody struct {
	Count      int      `json:"count"`
	Difficulty string   `json:"difficulty"`
	Emails     []string `json:"emails"`
}

func (b lessonRequestBody) toRequest() services.LessonRequest {
	return services.LessonRequest{Count: b.Count, Difficulty: b.Difficulty, Emails: b.Emails}
}

// POST /api/reading/upload
// multipart: file, count?, difficulty?, emails? (comma separated or repeated)
func (h *LessonHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("file exceeds %d bytes", services.MaxUploadBytes))
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	if fh.Size > services.MaxUploadBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("file exceeds %d bytes", services.MaxUploadBytes))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, services.MaxUploadBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	count, _ := strconv.Atoi(c.PostForm("count"))
	var emails []string
	for _, raw := range c.PostFormArray("emails") {
		emails = append(emails, services.SplitEmails(raw)...)
	}
	res, err := h.lessons.Upload(c.Request.Context(), services.UploadInput{
		Filename: filepath.Base(fh.Filename),
		Data:     data,
		LessonRequest: services.LessonRequest{
			Count:      count,
			Difficulty: c.PostForm("difficulty"),
			Emails:     emails,
		},
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/reading/analyze-text
// body: { "text": "...", "count": 5, "difficulty": "medium", "emails": [] }
func (h *LessonHandler) AnalyzeText(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
		lessonRequestBody
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.lessons.AnalyzeText(c.Request.Context(), req.Text, req.toRequest())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/reading/create-lesson
// body: { "topic": "...", "count": 5, "difficulty": "medium", "emails": [] }
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var req struct {
		Topic string `json:"topic"`
		lessonRequestBody
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.lessons.CreateLesson(c.Request.Context(), req.Topic, req.toRequest())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/reading/ask
func (h *LessonHandler) AskTutor(c *gin.Context) {
	var req struct {
		Question string `json:"question"`
		Context  string `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	answer, err := h.lessons.AskTutor(c.Request.Context(), req.Question, req.Context)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"answer": answer})
}

// POST /api/reading/evaluate
func (h *LessonHandler) Evaluate(c *gin.Context) {
	var req struct {
		Text     string `json:"text"`
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Question == "" || req.Answer == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("question and answer are required"))
		return
	}
	response.RespondOK(c, h.scoring.EvaluateAnswer(c.Request.Context(), req.Text, req.Question, req.Answer))
}

// POST /api/reading/feedback-analysis
// body: { "score": 4, "total": 5, "topic": "...", "lesson_id": "..." }
func (h *LessonHandler) Feedback(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Score    int        `json:"score"`
		Total    int        `json:"total"`
		Topic    string     `json:"topic"`
		LessonID *uuid.UUID `json:"lesson_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Total <= 0 || req.Score < 0 || req.Score > req.Total {
		response.RespondError(c, http.StatusBadRequest, "invalid_score", errors.New("score must be between 0 and total, total must be positive"))
		return
	}
	feedback := h.scoring.SubmitScore(c.Request.Context(), services.SubmitScoreInput{
		LessonID: req.LessonID,
		OwnerID:  userID,
		Score:    req.Score,
		Total:    req.Total,
		Topic:    req.Topic,
	})
	response.RespondOK(c, gin.H{"feedback": feedback})
}

// GET /api/reading/history
func (h *LessonHandler) ListHistory(c *gin.Context) {
	rows, err := h.lessons.ListHistory(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/reading/assigned
func (h *LessonHandler) ListAssigned(c *gin.Context) {
	rows, err := h.lessons.ListAssigned(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/reading/history/:id
func (h *LessonHandler) GetHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := h.lessons.GetHistory(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rec)
}

// GET /api/reading/history/:id/recipients
func (h *LessonHandler) ListRecipients(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rows, err := h.lessons.ListRecipients(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// DELETE /api/reading/history/:id
func (h *LessonHandler) DeleteHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.lessons.DeleteHistory(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "lesson deleted"})
}

