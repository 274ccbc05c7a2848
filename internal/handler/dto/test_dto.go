package dto

import (
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/handler/helper"
	"github.com/yourusername/satprep-api/internal/service"
	"github.com/yourusername/satprep-api/internal/service/scoring"
	"github.com/yourusername/satprep-api/internal/service/testsession"
)

// QuestionResponse представляет вопрос в формате для ответа клиенту.
// Правильный ответ в DTO не включается никогда: студент получает его
// только через разбор результатов и только при show_correct_answers.
type QuestionResponse struct {
	ID         uint                    `json:"id"`
	TestID     uint                    `json:"test_id"`
	Text       string                  `json:"text"`
	Options    []helper.QuestionOption `json:"options"`
	Points     int                     `json:"points"`
	OrderIndex int                     `json:"order_index"`
}

// TestResponse представляет тест в формате для ответа клиенту
type TestResponse struct {
	ID                 uint               `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	TimeLimitMinutes   int                `json:"time_limit_minutes"`
	PassingScore       int                `json:"passing_score"`
	MaxAttempts        int                `json:"max_attempts"`
	ShowCorrectAnswers bool               `json:"show_correct_answers"`
	QuestionCount      int                `json:"question_count"`
	Questions          []QuestionResponse `json:"questions,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// PaginatedTestResponse представляет пагинированный список тестов
type PaginatedTestResponse struct {
	Tests   []*TestResponse `json:"tests"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	return QuestionResponse{
		ID:         q.ID,
		TestID:     q.TestID,
		Text:       q.Text,
		Options:    helper.ConvertOptionsToObjects(q.Options),
		Points:     q.Points,
		OrderIndex: q.OrderIndex,
	}
}

// NewTestResponse создает DTO для теста
func NewTestResponse(test *entity.Test, includeQuestions bool) *TestResponse {
	resp := &TestResponse{
		ID:                 test.ID,
		Title:              test.Title,
		Description:        test.Description,
		TimeLimitMinutes:   test.TimeLimitMinutes,
		PassingScore:       test.PassingScore,
		MaxAttempts:        test.MaxAttempts,
		ShowCorrectAnswers: test.ShowCorrectAnswers,
		QuestionCount:      len(test.Questions),
		CreatedAt:          test.CreatedAt,
		UpdatedAt:          test.UpdatedAt,
	}
	if includeQuestions {
		ordered := test.OrderedQuestions()
		resp.Questions = make([]QuestionResponse, 0, len(ordered))
		for i := range ordered {
			resp.Questions = append(resp.Questions, NewQuestionResponse(&ordered[i]))
		}
	}
	return resp
}

// SessionResponse представляет активную сессию с вопросами и прогрессом
type SessionResponse struct {
	SessionID     string             `json:"session_id"`
	TestID        uint               `json:"test_id"`
	State         string             `json:"state"`
	CurrentIndex  int                `json:"current_index"`
	QuestionCount int                `json:"question_count"`
	AnsweredCount int                `json:"answered_count"`
	SecondsLeft   int                `json:"seconds_left"` // -1 без лимита
	Questions     []QuestionResponse `json:"questions,omitempty"`
}

// NewSessionResponse создает DTO сессии из снимка прогресса
func NewSessionResponse(p *testsession.Progress, questions []entity.Question) *SessionResponse {
	resp := &SessionResponse{
		SessionID:     p.SessionID,
		TestID:        p.TestID,
		State:         p.State,
		CurrentIndex:  p.CurrentIndex,
		QuestionCount: p.QuestionCount,
		AnsweredCount: p.AnsweredCount,
		SecondsLeft:   p.SecondsLeft,
	}
	if questions != nil {
		resp.Questions = make([]QuestionResponse, 0, len(questions))
		for i := range questions {
			resp.Questions = append(resp.Questions, NewQuestionResponse(&questions[i]))
		}
	}
	return resp
}

// AttemptResponse представляет зафиксированную попытку
type AttemptResponse struct {
	ID               uint      `json:"id"`
	TestID           uint      `json:"test_id"`
	UserID           uint      `json:"user_id"`
	Score            int       `json:"score"`
	PointsEarned     int       `json:"points_earned"`
	TotalPoints      int       `json:"total_points"`
	CorrectCount     int       `json:"correct_count"`
	Passed           bool      `json:"passed"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	AttemptNumber    int       `json:"attempt_number"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// NewAttemptResponse создает DTO попытки
func NewAttemptResponse(a *entity.Attempt) *AttemptResponse {
	return &AttemptResponse{
		ID:               a.ID,
		TestID:           a.TestID,
		UserID:           a.UserID,
		Score:            a.Score,
		PointsEarned:     a.PointsEarned,
		TotalPoints:      a.TotalPoints,
		CorrectCount:     a.CorrectCount,
		Passed:           a.Passed,
		TimeSpentSeconds: a.TimeSpentSeconds,
		AttemptNumber:    a.AttemptNumber,
		SubmittedAt:      a.SubmittedAt,
	}
}

// PaginatedAttemptResponse представляет пагинированный список попыток
type PaginatedAttemptResponse struct {
	Attempts []*AttemptResponse `json:"attempts"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PerPage  int                `json:"per_page"`
}

// AttemptReviewResponse представляет попытку вместе с разбором
type AttemptReviewResponse struct {
	Attempt *AttemptResponse         `json:"attempt"`
	Review  []scoring.QuestionReview `json:"review"`
}

// NewAttemptReviewResponse создает DTO разбора попытки
func NewAttemptReviewResponse(review *service.AttemptReview) *AttemptReviewResponse {
	return &AttemptReviewResponse{
		Attempt: NewAttemptResponse(review.Attempt),
		Review:  review.Review,
	}
}

// TestSummaryResponse — тест глазами студента: его лучший результат
// и остаток попыток (-1 без лимита)
type TestSummaryResponse struct {
	Test              *TestResponse `json:"test"`
	BestScore         *int          `json:"best_score,omitempty"`
	AttemptsUsed      int           `json:"attempts_used"`
	AttemptsRemaining int           `json:"attempts_remaining"`
}
