package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/satprep-api/internal/handler/dto"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/service"
	"github.com/yourusername/satprep-api/internal/service/testsession"
)

// SessionHandler обрабатывает жизненный цикл сессии прохождения теста
type SessionHandler struct {
	testService    *service.TestService
	sessionManager *testsession.Manager
}

// NewSessionHandler создает новый обработчик сессий
func NewSessionHandler(
	testService *service.TestService,
	sessionManager *testsession.Manager,
) *SessionHandler {
	return &SessionHandler{
		testService:    testService,
		sessionManager: sessionManager,
	}
}

// StartSession начинает прохождение теста
// POST /api/tests/:id/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	testID := c.MustGet("testID").(uint)
	userID := c.MustGet("user_id").(uint)
	cohortID := c.GetUint("cohort_id")

	test, err := h.testService.GetTestForTaking(testID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	session, err := h.sessionManager.StartSession(c.Request.Context(), userID, cohortID, test)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	progress, err := h.sessionManager.Progress(session.ID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSessionResponse(progress, session.Questions()))
}

// GetSession возвращает текущее состояние сессии с вопросами
// GET /api/sessions/:session_id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	progress, err := h.sessionManager.Progress(session.ID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(progress, session.Questions()))
}

// SelectAnswerRequest представляет выбор ответа на вопрос
type SelectAnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Letter     string `json:"letter" binding:"required,len=1"`
}

// SelectAnswer записывает или заменяет ответ в сессии
// PUT /api/sessions/:session_id/answers
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	var req SelectAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Неверный формат запроса: %v", err)})
		return
	}

	if err := session.SelectAnswer(req.QuestionID, req.Letter); err != nil {
		h.handleSessionError(c, err)
		return
	}

	progress, err := h.sessionManager.Progress(session.ID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(progress, nil))
}

// NavigateRequest представляет переход к вопросу: либо явный индекс,
// либо шаг next/prev (шаг упирается в границы без ошибки)
type NavigateRequest struct {
	Index     *int   `json:"index" binding:"omitempty,min=0"`
	Direction string `json:"direction" binding:"omitempty,oneof=next prev"`
}

// Navigate переводит позицию сессии на указанный вопрос
// PUT /api/sessions/:session_id/position
func (h *SessionHandler) Navigate(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Неверный формат запроса: %v", err)})
		return
	}

	var err error
	switch {
	case req.Index != nil:
		err = session.Navigate(*req.Index)
	case req.Direction == "next":
		err = session.Next()
	case req.Direction == "prev":
		err = session.Prev()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Укажите index или direction"})
		return
	}
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	progress, err := h.sessionManager.Progress(session.ID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(progress, nil))
}

// SubmitRequest представляет запрос на завершение сессии
type SubmitRequest struct {
	// Подтверждение сабмита с неотвеченными вопросами
	Force bool `json:"force"`
}

// Submit завершает сессию и записывает попытку.
// При неотвеченных вопросах без force возвращает 409 с флагом
// requires_confirmation: клиент показывает подтверждение и повторяет.
// POST /api/sessions/:session_id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	var req SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Неверный формат запроса: %v", err)})
			return
		}
	}

	attempt, err := h.sessionManager.Submit(c.Request.Context(), session.ID, req.Force)
	if err != nil {
		if errors.Is(err, testsession.ErrIncompleteAnswers) {
			c.JSON(http.StatusConflict, gin.H{
				"error":                 "Not all questions are answered",
				"requires_confirmation": true,
				"unanswered_count":      session.UnansweredCount(),
			})
			return
		}
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// CancelSession снимает сессию без записи попытки
// DELETE /api/sessions/:session_id
func (h *SessionHandler) CancelSession(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	if err := h.sessionManager.CancelSession(session.ID); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session cancelled"})
}

// ownedSession достает сессию из URL и проверяет владение
func (h *SessionHandler) ownedSession(c *gin.Context) (*testsession.Session, bool) {
	sessionID := c.Param("session_id")
	userID := c.MustGet("user_id").(uint)

	session, err := h.sessionManager.GetSession(sessionID)
	if err != nil {
		h.handleSessionError(c, err)
		return nil, false
	}
	if session.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Session belongs to another user"})
		return nil, false
	}
	return session, true
}

// handleSessionError преобразует ошибки сессий в HTTP-статусы
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, testsession.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, testsession.ErrAlreadySubmitted),
		errors.Is(err, testsession.ErrSubmitInProgress),
		errors.Is(err, testsession.ErrActiveSessionExists),
		errors.Is(err, service.ErrTestNotTakeable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, testsession.ErrInvalidAnswer),
		errors.Is(err, testsession.ErrQuestionNotInSession):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAttemptLimit):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAttemptConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Submission conflict, please retry"})
	default:
		log.Printf("ERROR: Internal server error in SessionHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
