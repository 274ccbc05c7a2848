package service

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/service/scoring"
	"github.com/yourusername/satprep-api/internal/service/testsession"
)

// Количество повторов записи при конфликте номера попытки
const attemptInsertRetries = 3

// AttemptService ведет журнал попыток: подсчет, нумерация, запись,
// выборки и агрегаты. Журнал append-only. Нумерацию и проверку лимита
// выполняет репозиторий одной транзакцией; сервис повторяет запись при
// конфликте номера с конкурентной записью.
type AttemptService struct {
	attemptRepo repository.AttemptRepository
	testRepo    repository.TestRepository
	clock       testsession.Clock
}

// NewAttemptService создает новый сервис попыток
func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	testRepo repository.TestRepository,
	clock testsession.Clock,
) *AttemptService {
	if clock == nil {
		clock = testsession.NewRealClock()
	}
	return &AttemptService{
		attemptRepo: attemptRepo,
		testRepo:    testRepo,
		clock:       clock,
	}
}

// RecordAttempt подсчитывает завершенную сессию и записывает попытку.
// Реализует testsession.Recorder.
//
// Лимит попыток проверяется в момент записи, в той же транзакции, что
// и подсчет номера: проверка на старте сессии была бы только подсказкой
// UI и пропускала бы гонку двух параллельных сессий.
func (s *AttemptService) RecordAttempt(ctx context.Context, sub *testsession.Submission) (*entity.Attempt, error) {
	test, err := s.testRepo.GetWithQuestions(sub.TestID)
	if err != nil {
		return nil, err
	}

	result, err := scoring.Score(test.PassingScore, test.Questions, sub.Answers)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < attemptInsertRetries; i++ {
		attempt := &entity.Attempt{
			TestID:           sub.TestID,
			UserID:           sub.UserID,
			CohortID:         sub.CohortID,
			Answers:          sub.Answers,
			Score:            result.ScorePercent,
			PointsEarned:     result.PointsEarned,
			TotalPoints:      result.TotalPoints,
			CorrectCount:     result.CorrectCount,
			Passed:           result.Passed,
			TimeSpentSeconds: sub.TimeSpentSeconds,
			SubmittedAt:      s.clock.Now(),
		}

		err := s.attemptRepo.CreateNumbered(attempt, test.MaxAttempts)
		if err == nil {
			log.Printf("[AttemptService] Попытка #%d записана (user %d, test %d, score %d%%, passed=%v)",
				attempt.AttemptNumber, sub.UserID, sub.TestID, attempt.Score, attempt.Passed)
			return attempt, nil
		}
		if !errors.Is(err, apperrors.ErrAttemptConflict) {
			return nil, err
		}
		// Конкурентная запись заняла наш номер: пересчитываем и повторяем
		lastErr = err
		log.Printf("[AttemptService] Конфликт номера попытки (user %d, test %d), повтор %d/%d",
			sub.UserID, sub.TestID, i+1, attemptInsertRetries)
	}

	return nil, lastErr
}

// GetAttempt возвращает попытку с проверкой владения: студент видит
// только свои попытки, преподаватель любые
func (s *AttemptService) GetAttempt(attemptID, requesterID uint, isTeacher bool) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return nil, err
	}
	if !isTeacher && attempt.UserID != requesterID {
		return nil, apperrors.ErrForbidden
	}
	return attempt, nil
}

// AttemptReview — результат попытки вместе с поэлементным разбором
type AttemptReview struct {
	Attempt *entity.Attempt          `json:"attempt"`
	Review  []scoring.QuestionReview `json:"review"`
}

// BuildAttemptReview строит разбор попытки по текущим вопросам теста.
// Правильные ответы показываются студенту только при show_correct_answers;
// преподаватель видит их всегда.
func (s *AttemptService) BuildAttemptReview(attemptID, requesterID uint, isTeacher bool) (*AttemptReview, error) {
	attempt, err := s.GetAttempt(attemptID, requesterID, isTeacher)
	if err != nil {
		return nil, err
	}

	test, err := s.testRepo.GetWithQuestions(attempt.TestID)
	if err != nil {
		return nil, err
	}

	includeCorrect := isTeacher || test.ShowCorrectAnswers
	review := scoring.BuildReview(test.OrderedQuestions(), attempt.Answers, includeCorrect)

	return &AttemptReview{Attempt: attempt, Review: review}, nil
}

// ListUserAttempts возвращает все попытки студента по тесту
func (s *AttemptService) ListUserAttempts(userID, testID uint) ([]entity.Attempt, error) {
	return s.attemptRepo.GetByUserAndTest(userID, testID)
}

// ListTestAttempts возвращает попытки всех студентов по тесту (для преподавателя)
func (s *AttemptService) ListTestAttempts(testID uint, page, pageSize int) ([]entity.Attempt, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.attemptRepo.GetByTestID(testID, pageSize, (page-1)*pageSize)
}

// ListAllTestAttempts возвращает все попытки по тесту без пагинации
// (для экспорта). Читает журнал страницами по 500 записей.
func (s *AttemptService) ListAllTestAttempts(testID uint) ([]entity.Attempt, error) {
	const pageSize = 500
	var all []entity.Attempt
	offset := 0
	for {
		page, total, err := s.attemptRepo.GetByTestID(testID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		offset += len(page)
		if len(page) == 0 || int64(offset) >= total {
			return all, nil
		}
	}
}

// AttemptsRemaining возвращает остаток попыток студента по тесту.
// -1 означает отсутствие лимита. Остаток не уходит ниже нуля даже
// если записей оказалось больше лимита (лимит ужесточили задним числом).
func (s *AttemptService) AttemptsRemaining(userID uint, test *entity.Test) (int, error) {
	if !test.HasAttemptLimit() {
		return -1, nil
	}
	attempts, err := s.attemptRepo.GetByUserAndTest(userID, test.ID)
	if err != nil {
		return 0, err
	}
	remaining := test.MaxAttempts - len(attempts)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// BestScore возвращает лучший процент студента по тесту, nil если попыток нет
func (s *AttemptService) BestScore(userID, testID uint) (*int, error) {
	return s.attemptRepo.BestScore(userID, testID)
}

// UserStats — агрегированная статистика студента по всем тестам
type UserStats struct {
	TotalAttempts  int     `json:"total_attempts"`
	PassedAttempts int     `json:"passed_attempts"`
	AverageScore   int     `json:"average_score"`
	StudyTimeHours float64 `json:"study_time_hours"`
	LastActivityAt *string `json:"last_activity_at,omitempty"`
}

// GetUserStats собирает статистику студента по журналу попыток
func (s *AttemptService) GetUserStats(userID uint) (*UserStats, error) {
	attempts, err := s.attemptRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{TotalAttempts: len(attempts)}
	if len(attempts) == 0 {
		return stats, nil
	}

	scoreSum := 0
	secondsSum := 0
	var last time.Time
	for i := range attempts {
		a := &attempts[i]
		scoreSum += a.Score
		secondsSum += a.TimeSpentSeconds
		if a.Passed {
			stats.PassedAttempts++
		}
		if a.SubmittedAt.After(last) {
			last = a.SubmittedAt
		}
	}

	// Округление к ближайшему, как при подсчете процента в попытке
	stats.AverageScore = int(math.Round(float64(scoreSum) / float64(len(attempts))))
	// Часы с одним знаком после запятой, как на дашборде
	stats.StudyTimeHours = float64(int(float64(secondsSum)/3600*10)) / 10
	lastStr := last.Format(time.RFC3339)
	stats.LastActivityAt = &lastStr

	return stats, nil
}
