package testsession

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
)

// Состояния сессии прохождения теста
const (
	StateInProgress = "in_progress"
	StateSubmitting = "submitting"
	StateSubmitted  = "submitted"
)

// Ошибки операций над сессией
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrActiveSessionExists  = errors.New("an active session already exists for this test")
	ErrAlreadySubmitted     = errors.New("session has already been submitted")
	ErrSubmitInProgress     = errors.New("submission is already in progress")
	ErrIncompleteAnswers    = errors.New("not all questions are answered")
	ErrQuestionNotInSession = errors.New("question does not belong to this session")
	ErrInvalidAnswer        = errors.New("answer letter is not valid for this question")
	ErrTimeExpired          = errors.New("session time has expired")
)

// Config содержит настройки менеджера сессий
type Config struct {
	// Интервал тиков таймера для ограниченных по времени сессий
	TickInterval time.Duration
	// TTL блокировки сабмита в кеше (защита от повторного сабмита из другой вкладки)
	SubmitLockTTL time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		TickInterval:  1 * time.Second,
		SubmitLockTTL: 30 * time.Second,
	}
}

// Submission описывает завершенную сессию, передаваемую на запись в журнал
type Submission struct {
	SessionID        string
	UserID           uint
	CohortID         uint
	TestID           uint
	Answers          entity.AnswerMap
	TimeSpentSeconds int
	AutoSubmitted    bool
}

// Recorder определяет интерфейс для методов сервиса попыток,
// необходимых менеджеру сессий.
type Recorder interface {
	RecordAttempt(ctx context.Context, sub *Submission) (*entity.Attempt, error)
}

// Notifier получает события жизненного цикла сессии (тики таймера,
// автосабмит, готовность результатов). Реализуется websocket-менеджером.
type Notifier interface {
	SessionTick(sessionID string, userID uint, secondsLeft int)
	SessionAutoSubmitted(sessionID string, userID uint)
	SessionResultsAvailable(sessionID string, userID uint, attemptID uint)
}

// Dependencies содержит зависимости менеджера сессий
type Dependencies struct {
	CacheRepo repository.CacheRepository
	Recorder  Recorder
	Notifier  Notifier
	Clock     Clock
	Config    *Config
}
