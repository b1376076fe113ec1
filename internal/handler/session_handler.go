package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/validator"
)

// ExportFileName is the download name of the exported result.
const ExportFileName = "result.json"

// SessionHandler handles the quiz session endpoints.
type SessionHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Session request failed")
	}
	response.Fail(c, status, code)
}

func (h *SessionHandler) reply(c *gin.Context, view model.SessionView, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// GetQuiz godoc
// GET /api/v1/quiz
// Returns the quiz title and the options the session runs with.
func (h *SessionHandler) GetQuiz(c *gin.Context) {
	cfg := h.sessionService.Config()
	response.Success(c, http.StatusOK, gin.H{
		"quiz": gin.H{
			"title":                      cfg.Title,
			"time_limit_minutes":         cfg.TimeLimitMinutes,
			"shuffle_questions":          cfg.ShuffleQuestions,
			"shuffle_options":            cfg.ShuffleOptions,
			"allow_review_before_submit": cfg.AllowReviewBeforeSubmit,
			"show_missed_review":         cfg.ShowMissedReview,
		},
	})
}

// GetSession godoc
// GET /api/v1/session
// Returns the current question, or the result once submitted.
func (h *SessionHandler) GetSession(c *gin.Context) {
	view, err := h.sessionService.View(c.Request.Context())
	h.reply(c, view, err)
}

// RecordAnswer godoc
// POST /api/v1/session/answers
// Answers a question with the option at the given display index.
func (h *SessionHandler) RecordAnswer(c *gin.Context) {
	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.RecordAnswer(c.Request.Context(), req.QuestionID, *req.ChoiceIndex)
	h.reply(c, view, err)
}

// Advance godoc
// POST /api/v1/session/advance
// Moves to the next question. On the last question nothing moves and
// submit_required tells the client to offer submission.
func (h *SessionHandler) Advance(c *gin.Context) {
	view, err := h.sessionService.Advance(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session":         view,
		"submit_required": view.IsLast && view.Status == model.SessionStatusInProgress,
	})
}

// Next godoc
// POST /api/v1/session/next
// Advances, or submits when on the last question.
func (h *SessionHandler) Next(c *gin.Context) {
	view, err := h.sessionService.Next(c.Request.Context())
	h.reply(c, view, err)
}

// Retreat godoc
// POST /api/v1/session/retreat
// Moves back one question when review is allowed.
func (h *SessionHandler) Retreat(c *gin.Context) {
	view, err := h.sessionService.Retreat(c.Request.Context())
	h.reply(c, view, err)
}

// Submit godoc
// POST /api/v1/session/submit
// Grades the session. Repeated calls return the same result.
func (h *SessionHandler) Submit(c *gin.Context) {
	view, err := h.sessionService.Submit(c.Request.Context())
	h.reply(c, view, err)
}

// Reset godoc
// POST /api/v1/session/reset
// Discards the session and starts a new attempt.
func (h *SessionHandler) Reset(c *gin.Context) {
	view := h.sessionService.Reset(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// GetResult godoc
// GET /api/v1/session/result
func (h *SessionHandler) GetResult(c *gin.Context) {
	res, err := h.sessionService.Result(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// Export godoc
// GET /api/v1/session/export
// Downloads result.json with score, answers and tagStats.
func (h *SessionHandler) Export(c *gin.Context) {
	doc, err := h.sessionService.Export(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Download(c, ExportFileName, doc)
}
