package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/handler/dto"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/service"
)

// TestHandler обрабатывает запросы управления тестами и вопросами
type TestHandler struct {
	testService    *service.TestService
	attemptService *service.AttemptService
}

// NewTestHandler создает новый обработчик тестов
func NewTestHandler(
	testService *service.TestService,
	attemptService *service.AttemptService,
) *TestHandler {
	return &TestHandler{
		testService:    testService,
		attemptService: attemptService,
	}
}

// CreateTestRequest представляет запрос на создание теста
type CreateTestRequest struct {
	Title              string `json:"title" binding:"required,min=3,max=200"`
	Description        string `json:"description" binding:"omitempty,max=1000"`
	TimeLimitMinutes   int    `json:"time_limit_minutes" binding:"omitempty,min=0"`
	PassingScore       *int   `json:"passing_score"`
	MaxAttempts        int    `json:"max_attempts" binding:"omitempty,min=0"`
	ShowCorrectAnswers *bool  `json:"show_correct_answers"`
}

// CreateTest создает новый тест
// POST /api/tests
func (h *TestHandler) CreateTest(c *gin.Context) {
	var req CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Неверный формат запроса: %v", err)})
		return
	}

	showCorrect := true
	if req.ShowCorrectAnswers != nil {
		showCorrect = *req.ShowCorrectAnswers
	}

	test, err := h.testService.CreateTest(service.CreateTestInput{
		Title:              req.Title,
		Description:        req.Description,
		TimeLimitMinutes:   req.TimeLimitMinutes,
		PassingScore:       req.PassingScore,
		MaxAttempts:        req.MaxAttempts,
		ShowCorrectAnswers: showCorrect,
		CreatedBy:          c.MustGet("user_id").(uint),
	})
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTestResponse(test, false))
}

// GetTest возвращает тест с вопросами.
// Правильные ответы в выдачу не попадают (их нет в DTO вопроса).
// GET /api/tests/:id
func (h *TestHandler) GetTest(c *gin.Context) {
	testID := c.MustGet("testID").(uint)

	test, err := h.testService.GetTestWithQuestions(testID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTestResponse(test, true))
}

// GetTestSummary возвращает тест глазами студента: лучший результат
// и остаток попыток
// GET /api/tests/:id/summary
func (h *TestHandler) GetTestSummary(c *gin.Context) {
	testID := c.MustGet("testID").(uint)
	userID := c.MustGet("user_id").(uint)

	test, err := h.testService.GetTestByID(testID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	attempts, err := h.attemptService.ListUserAttempts(userID, testID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	remaining, err := h.attemptService.AttemptsRemaining(userID, test)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	best, err := h.attemptService.BestScore(userID, testID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TestSummaryResponse{
		Test:              dto.NewTestResponse(test, false),
		BestScore:         best,
		AttemptsUsed:      len(attempts),
		AttemptsRemaining: remaining,
	})
}

// ListTests возвращает список тестов с пагинацией
// GET /api/tests?page=1&per_page=20
func (h *TestHandler) ListTests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	tests, total, err := h.testService.ListTests(page, perPage)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	responses := make([]*dto.TestResponse, 0, len(tests))
	for i := range tests {
		responses = append(responses, dto.NewTestResponse(&tests[i], false))
	}

	c.JSON(http.StatusOK, dto.PaginatedTestResponse{
		Tests:   responses,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// UpdateTestRequest представляет запрос на обновление настроек теста
type UpdateTestRequest struct {
	Title              *string `json:"title" binding:"omitempty,min=3,max=200"`
	Description        *string `json:"description" binding:"omitempty,max=1000"`
	TimeLimitMinutes   *int    `json:"time_limit_minutes" binding:"omitempty,min=0"`
	PassingScore       *int    `json:"passing_score"`
	MaxAttempts        *int    `json:"max_attempts" binding:"omitempty,min=0"`
	ShowCorrectAnswers *bool   `json:"show_correct_answers"`
}

// UpdateTest обновляет настройки теста.
// Уже записанные попытки изменение настроек не трогает.
// PUT /api/tests/:id
func (h *TestHandler) UpdateTest(c *gin.Context) {
	testID := c.MustGet("testID").(uint)

	var req UpdateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Неверный формат запроса: %v", err)})
		return
	}

	test, err := h.testService.GetTestByID(testID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	if req.Title != nil {
		test.Title = *req.Title
	}
	if req.Description != nil {
		test.Description = *req.Description
	}
	if req.TimeLimitMinutes != nil {
		test.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.PassingScore != nil {
		test.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		test.MaxAttempts = *req.MaxAttempts
	}
	if req.ShowCorrectAnswers != nil {
		test.ShowCorrectAnswers = *req.ShowCorrectAnswers
	}

	if err := h.testService.UpdateTest(test); err != nil {
		h.handleTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTestResponse(test, false))
}

// DeleteTest удаляет тест
// DELETE /api/tests/:id
func (h *TestHandler) DeleteTest(c *gin.Context) {
	testID := c.MustGet("testID").(uint)

	if err := h.testService.DeleteTest(testID); err != nil {
		h.handleTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Test deleted"})
}

// AddQuestionsRequest представляет запрос на добавление вопросов
type AddQuestionsRequest struct {
	Questions []struct {
		Text          string   `json:"text" binding:"required,min=3,max=2000"`
		Options       []string `json:"options" binding:"required,min=2,max=26"`
		CorrectOption int      `json:"correct_option" binding:"min=0"`
		Points        int      `json:"points" binding:"omitempty,min=1"`
		Explanation   string   `json:"explanation" binding:"omitempty,max=2000"`
	} `json:"questions" binding:"required,min=1"`
}

// AddQuestions добавляет пакет вопросов в тест
// POST /api/tests/:id/questions
func (h *TestHandler) AddQuestions(c *gin.Context) {
	testID := c.MustGet("testID").(uint)

	var req AddQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Неверный формат запроса: %v", err)})
		return
	}

	inputs := make([]service.QuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		inputs = append(inputs, service.QuestionInput{
			Text:          q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Points:        q.Points,
			Explanation:   q.Explanation,
		})
	}

	questions, err := h.testService.AddQuestions(testID, inputs)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	responses := make([]dto.QuestionResponse, 0, len(questions))
	for i := range questions {
		responses = append(responses, dto.NewQuestionResponse(&questions[i]))
	}

	c.JSON(http.StatusCreated, gin.H{"questions": responses})
}

// UpdateQuestionRequest представляет запрос на обновление вопроса
type UpdateQuestionRequest struct {
	Text          *string  `json:"text" binding:"omitempty,min=3,max=2000"`
	Options       []string `json:"options" binding:"omitempty,min=2,max=26"`
	CorrectOption *int     `json:"correct_option" binding:"omitempty,min=0"`
	Points        *int     `json:"points" binding:"omitempty,min=1"`
	Explanation   *string  `json:"explanation" binding:"omitempty,max=2000"`
}

// UpdateQuestion обновляет вопрос теста.
// Идущие сессии работают со своим снимком и правку не видят.
// PUT /api/questions/:id
func (h *TestHandler) UpdateQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Неверный формат запроса: %v", err)})
		return
	}

	question, err := h.testService.GetQuestion(questionID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Options != nil {
		question.Options = entity.StringArray(req.Options)
	}
	if req.CorrectOption != nil {
		if *req.CorrectOption >= question.OptionsCount() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "correct option index out of range"})
			return
		}
		question.CorrectAnswer = entity.OptionLetter(*req.CorrectOption)
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.Explanation != nil {
		question.Explanation = *req.Explanation
	}

	if err := h.testService.UpdateQuestion(question); err != nil {
		h.handleTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuestionResponse(question))
}

// DeleteQuestion удаляет вопрос из теста
// DELETE /api/questions/:id
func (h *TestHandler) DeleteQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	if err := h.testService.DeleteQuestion(questionID); err != nil {
		h.handleTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// handleTestError преобразует ошибки сервисов в HTTP-статусы
func (h *TestHandler) handleTestError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, service.ErrTestNotTakeable) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in TestHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
