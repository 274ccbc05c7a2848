package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/service/testsession"
)

// ============================================================================
// Моки для AttemptService
// ============================================================================

// MockAttemptRepoForAttemptService реализует repository.AttemptRepository
type MockAttemptRepoForAttemptService struct {
	mock.Mock
}

func (m *MockAttemptRepoForAttemptService) CreateNumbered(attempt *entity.Attempt, maxAttempts int) error {
	args := m.Called(attempt, maxAttempts)
	return args.Error(0)
}

func (m *MockAttemptRepoForAttemptService) GetByID(id uint) (*entity.Attempt, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepoForAttemptService) GetByUserAndTest(userID, testID uint) ([]entity.Attempt, error) {
	args := m.Called(userID, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepoForAttemptService) GetByTestID(testID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	args := m.Called(testID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Attempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepoForAttemptService) GetByUserID(userID uint) ([]entity.Attempt, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepoForAttemptService) BestScore(userID, testID uint) (*int, error) {
	args := m.Called(userID, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

// MockTestRepoForAttemptService реализует repository.TestRepository
type MockTestRepoForAttemptService struct {
	mock.Mock
}

func (m *MockTestRepoForAttemptService) Create(test *entity.Test) error {
	args := m.Called(test)
	return args.Error(0)
}

func (m *MockTestRepoForAttemptService) GetByID(id uint) (*entity.Test, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

func (m *MockTestRepoForAttemptService) GetWithQuestions(id uint) (*entity.Test, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

func (m *MockTestRepoForAttemptService) List(limit, offset int) ([]entity.Test, int64, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Test), args.Get(1).(int64), args.Error(2)
}

func (m *MockTestRepoForAttemptService) Update(test *entity.Test) error {
	args := m.Called(test)
	return args.Error(0)
}

func (m *MockTestRepoForAttemptService) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// fakeAttemptLedger имитирует таблицу test_attempts с уникальным
// индексом: нумерация под мьютексом, как в транзакции БД
type fakeAttemptLedger struct {
	mu       sync.Mutex
	attempts []entity.Attempt
}

func (l *fakeAttemptLedger) CreateNumbered(attempt *entity.Attempt, maxAttempts int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for i := range l.attempts {
		if l.attempts[i].UserID == attempt.UserID && l.attempts[i].TestID == attempt.TestID {
			count++
		}
	}
	if maxAttempts > 0 && count >= maxAttempts {
		return apperrors.ErrAttemptLimit
	}
	attempt.AttemptNumber = count + 1
	attempt.ID = uint(len(l.attempts) + 1)
	l.attempts = append(l.attempts, *attempt)
	return nil
}

func (l *fakeAttemptLedger) GetByID(id uint) (*entity.Attempt, error) { return nil, apperrors.ErrNotFound }
func (l *fakeAttemptLedger) GetByUserAndTest(userID, testID uint) ([]entity.Attempt, error) {
	return nil, nil
}
func (l *fakeAttemptLedger) GetByTestID(testID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	return nil, 0, nil
}
func (l *fakeAttemptLedger) GetByUserID(userID uint) ([]entity.Attempt, error) { return nil, nil }
func (l *fakeAttemptLedger) BestScore(userID, testID uint) (*int, error)       { return nil, nil }

func scoringTest() *entity.Test {
	return &entity.Test{
		ID:           1,
		Title:        "SAT Practice",
		PassingScore: 70,
		MaxAttempts:  0,
		Questions: []entity.Question{
			{ID: 10, Options: entity.StringArray{"a", "b"}, CorrectAnswer: "A", Points: 1, OrderIndex: 0},
			{ID: 11, Options: entity.StringArray{"a", "b"}, CorrectAnswer: "B", Points: 1, OrderIndex: 1},
		},
	}
}

// ============================================================================
// Тесты RecordAttempt
// ============================================================================

func TestAttemptService_RecordAttempt_ScoresAndRecords(t *testing.T) {
	// Arrange
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)

	mockTestRepo.On("GetWithQuestions", uint(1)).Return(scoringTest(), nil)
	mockAttemptRepo.On("CreateNumbered", mock.AnythingOfType("*entity.Attempt"), 0).Return(nil)

	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	sub := &testsession.Submission{
		SessionID:        "s1",
		UserID:           5,
		CohortID:         3,
		TestID:           1,
		Answers:          entity.AnswerMap{10: "A", 11: "A"},
		TimeSpentSeconds: 120,
	}

	// Act
	attempt, err := svc.RecordAttempt(context.Background(), sub)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 50, attempt.Score, "1 из 2 очков = 50%")
	assert.Equal(t, 1, attempt.PointsEarned)
	assert.Equal(t, 2, attempt.TotalPoints)
	assert.Equal(t, 1, attempt.CorrectCount)
	assert.False(t, attempt.Passed)
	assert.Equal(t, 120, attempt.TimeSpentSeconds)
	assert.Equal(t, uint(3), attempt.CohortID)
	assert.False(t, attempt.SubmittedAt.IsZero())
	mockAttemptRepo.AssertExpectations(t)
}

func TestAttemptService_RecordAttempt_RetriesOnConflict(t *testing.T) {
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)

	mockTestRepo.On("GetWithQuestions", uint(1)).Return(scoringTest(), nil)
	// Два конфликта номера, затем успех
	mockAttemptRepo.On("CreateNumbered", mock.Anything, 0).Return(apperrors.ErrAttemptConflict).Twice()
	mockAttemptRepo.On("CreateNumbered", mock.Anything, 0).Return(nil).Once()

	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	attempt, err := svc.RecordAttempt(context.Background(), &testsession.Submission{
		UserID: 5, TestID: 1, Answers: entity.AnswerMap{10: "A"},
	})

	require.NoError(t, err)
	assert.NotNil(t, attempt)
	mockAttemptRepo.AssertNumberOfCalls(t, "CreateNumbered", 3)
}

func TestAttemptService_RecordAttempt_ConflictExhausted(t *testing.T) {
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)

	mockTestRepo.On("GetWithQuestions", uint(1)).Return(scoringTest(), nil)
	mockAttemptRepo.On("CreateNumbered", mock.Anything, 0).Return(apperrors.ErrAttemptConflict)

	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	_, err := svc.RecordAttempt(context.Background(), &testsession.Submission{
		UserID: 5, TestID: 1, Answers: entity.AnswerMap{10: "A"},
	})

	assert.ErrorIs(t, err, apperrors.ErrAttemptConflict)
	mockAttemptRepo.AssertNumberOfCalls(t, "CreateNumbered", attemptInsertRetries)
}

func TestAttemptService_RecordAttempt_LimitNotRetried(t *testing.T) {
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)

	test := scoringTest()
	test.MaxAttempts = 2
	mockTestRepo.On("GetWithQuestions", uint(1)).Return(test, nil)
	mockAttemptRepo.On("CreateNumbered", mock.Anything, 2).Return(apperrors.ErrAttemptLimit)

	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	_, err := svc.RecordAttempt(context.Background(), &testsession.Submission{
		UserID: 5, TestID: 1, Answers: entity.AnswerMap{10: "A"},
	})

	// Исчерпанный лимит не повторяется
	assert.ErrorIs(t, err, apperrors.ErrAttemptLimit)
	mockAttemptRepo.AssertNumberOfCalls(t, "CreateNumbered", 1)
}

func TestAttemptService_RecordAttempt_ConcurrentNumbering(t *testing.T) {
	// Восемь параллельных сабмитов при лимите в 5 попыток:
	// проходят ровно 5, номера уникальны и непрерывны
	ledger := &fakeAttemptLedger{}
	mockTestRepo := new(MockTestRepoForAttemptService)

	test := scoringTest()
	test.MaxAttempts = 5
	mockTestRepo.On("GetWithQuestions", uint(1)).Return(test, nil)

	svc := NewAttemptService(ledger, mockTestRepo, nil)

	var wg sync.WaitGroup
	var successes int64
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordAttempt(context.Background(), &testsession.Submission{
				UserID: 5, TestID: 1, Answers: entity.AnswerMap{10: "A"},
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), successes)
	require.Len(t, ledger.attempts, 5)

	seen := make(map[int]bool)
	for _, a := range ledger.attempts {
		assert.False(t, seen[a.AttemptNumber], "Номер попытки %d встретился дважды", a.AttemptNumber)
		seen[a.AttemptNumber] = true
		assert.GreaterOrEqual(t, a.AttemptNumber, 1)
		assert.LessOrEqual(t, a.AttemptNumber, 5)
	}
}

func TestAttemptService_RecordAttempt_SequentialNumbering(t *testing.T) {
	// Последовательные сабмиты нумеруются 1, 2, ..., N без пропусков
	ledger := &fakeAttemptLedger{}
	mockTestRepo := new(MockTestRepoForAttemptService)
	mockTestRepo.On("GetWithQuestions", uint(1)).Return(scoringTest(), nil)

	svc := NewAttemptService(ledger, mockTestRepo, nil)

	for i := 1; i <= 4; i++ {
		attempt, err := svc.RecordAttempt(context.Background(), &testsession.Submission{
			UserID: 5, TestID: 1, Answers: entity.AnswerMap{10: "A"},
		})
		require.NoError(t, err)
		assert.Equal(t, i, attempt.AttemptNumber)
	}
}

// ============================================================================
// Тесты выборок и агрегатов
// ============================================================================

func TestAttemptService_GetAttempt_Ownership(t *testing.T) {
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)

	attempt := &entity.Attempt{ID: 7, UserID: 5, TestID: 1}
	mockAttemptRepo.On("GetByID", uint(7)).Return(attempt, nil)

	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	// Владелец видит свою попытку
	got, err := svc.GetAttempt(7, 5, false)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.ID)

	// Чужой студент получает forbidden
	_, err = svc.GetAttempt(7, 6, false)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Преподаватель видит любые попытки
	_, err = svc.GetAttempt(7, 6, true)
	assert.NoError(t, err)
}

func TestAttemptService_BuildAttemptReview_HidesCorrectAnswers(t *testing.T) {
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)

	test := scoringTest()
	test.ShowCorrectAnswers = false
	attempt := &entity.Attempt{ID: 7, UserID: 5, TestID: 1, Answers: entity.AnswerMap{10: "A"}}
	mockAttemptRepo.On("GetByID", uint(7)).Return(attempt, nil)
	mockTestRepo.On("GetWithQuestions", uint(1)).Return(test, nil)

	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	// Студент не видит правильных ответов
	review, err := svc.BuildAttemptReview(7, 5, false)
	require.NoError(t, err)
	require.Len(t, review.Review, 2)
	assert.Empty(t, review.Review[0].CorrectLetter)

	// Преподаватель видит всегда
	review, err = svc.BuildAttemptReview(7, 5, true)
	require.NoError(t, err)
	assert.Equal(t, "A", review.Review[0].CorrectLetter)
}

func TestAttemptService_AttemptsRemaining(t *testing.T) {
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)
	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	// Без лимита остаток не считается
	unlimited := &entity.Test{ID: 1, MaxAttempts: 0}
	remaining, err := svc.AttemptsRemaining(5, unlimited)
	require.NoError(t, err)
	assert.Equal(t, -1, remaining)

	// С лимитом
	limited := &entity.Test{ID: 2, MaxAttempts: 3}
	mockAttemptRepo.On("GetByUserAndTest", uint(5), uint(2)).Return([]entity.Attempt{{}, {}}, nil).Once()
	remaining, err = svc.AttemptsRemaining(5, limited)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	// Записей больше лимита (лимит ужесточили задним числом): остаток не отрицательный
	mockAttemptRepo.On("GetByUserAndTest", uint(5), uint(2)).Return([]entity.Attempt{{}, {}, {}, {}}, nil).Once()
	remaining, err = svc.AttemptsRemaining(5, limited)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestAttemptService_GetUserStats(t *testing.T) {
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)

	submitted := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	attempts := []entity.Attempt{
		{Score: 80, Passed: true, TimeSpentSeconds: 1800, SubmittedAt: submitted},
		{Score: 60, Passed: false, TimeSpentSeconds: 1800, SubmittedAt: submitted.Add(time.Hour)},
	}
	mockAttemptRepo.On("GetByUserID", uint(5)).Return(attempts, nil)

	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	stats, err := svc.GetUserStats(5)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalAttempts)
	assert.Equal(t, 1, stats.PassedAttempts)
	assert.Equal(t, 70, stats.AverageScore)
	assert.Equal(t, 1.0, stats.StudyTimeHours, "3600 секунд = 1 час")
	require.NotNil(t, stats.LastActivityAt)
}

func TestAttemptService_GetUserStats_AverageRoundsHalfUp(t *testing.T) {
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)

	submitted := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	// (80 + 79) / 2 = 79.5 — округляется вверх, а не обрезается
	attempts := []entity.Attempt{
		{Score: 80, TimeSpentSeconds: 600, SubmittedAt: submitted},
		{Score: 79, TimeSpentSeconds: 600, SubmittedAt: submitted},
	}
	mockAttemptRepo.On("GetByUserID", uint(5)).Return(attempts, nil)

	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	stats, err := svc.GetUserStats(5)
	require.NoError(t, err)
	assert.Equal(t, 80, stats.AverageScore)
}

func TestAttemptService_GetUserStats_Empty(t *testing.T) {
	mockAttemptRepo := new(MockAttemptRepoForAttemptService)
	mockTestRepo := new(MockTestRepoForAttemptService)
	mockAttemptRepo.On("GetByUserID", uint(5)).Return([]entity.Attempt{}, nil)

	svc := NewAttemptService(mockAttemptRepo, mockTestRepo, nil)

	stats, err := svc.GetUserStats(5)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalAttempts)
	assert.Equal(t, 0, stats.AverageScore)
	assert.Nil(t, stats.LastActivityAt)
}
