package testsession

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// Manager управляет активными сессиями прохождения тестов.
// Сессии живут в памяти процесса; по одной активной сессии на пару
// (студент, тест). Для ограниченных по времени тестов менеджер ведет
// таймер с тиками и автосабмитом на нуле.
type Manager struct {
	config *Config
	deps   *Dependencies

	sessions sync.Map // map[string]*Session
	active   sync.Map // map[string]string, "userID:testID" -> sessionID
	cancels  sync.Map // map[string]context.CancelFunc
}

// NewManager создает новый менеджер сессий
func NewManager(config *Config, deps *Dependencies) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	if deps.Clock == nil {
		deps.Clock = NewRealClock()
	}
	return &Manager{
		config: config,
		deps:   deps,
	}
}

func activeKey(userID, testID uint) string {
	return fmt.Sprintf("%d:%d", userID, testID)
}

// StartSession создает сессию для студента по снимку теста.
// Тест должен быть пригоден к прохождению (проверяется сервисом до
// вызова). Если у студента уже есть активная сессия по этому тесту,
// возвращается она же: обновление страницы не плодит сессии.
func (m *Manager) StartSession(ctx context.Context, userID, cohortID uint, test *entity.Test) (*Session, error) {
	key := activeKey(userID, test.ID)

	if existingID, ok := m.active.Load(key); ok {
		if existing, ok := m.sessions.Load(existingID.(string)); ok {
			sess := existing.(*Session)
			if sess.State() != StateSubmitted {
				log.Printf("[SessionManager] Возвращаю существующую сессию %s (user %d, test %d)", sess.ID, userID, test.ID)
				return sess, nil
			}
		}
		// Висячая запись от завершенной сессии
		m.active.Delete(key)
	}

	now := m.deps.Clock.Now()
	session := NewSession(uuid.NewString(), userID, cohortID, test, now)

	if _, loaded := m.active.LoadOrStore(key, session.ID); loaded {
		// Параллельный старт успел раньше
		return nil, ErrActiveSessionExists
	}
	m.sessions.Store(session.ID, session)

	if test.HasTimeLimit() {
		// Таймер живет дольше HTTP-запроса, создавшего сессию,
		// поэтому его контекст не наследует контекст запроса
		timerCtx, cancel := context.WithCancel(context.Background())
		m.cancels.Store(session.ID, cancel)
		go m.runTimer(timerCtx, session)
	}

	log.Printf("[SessionManager] Сессия %s создана (user %d, test %d, лимит %d мин)",
		session.ID, userID, test.ID, test.TimeLimitMinutes)
	return session, nil
}

// GetSession возвращает сессию по ID
func (m *Manager) GetSession(sessionID string) (*Session, error) {
	value, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return value.(*Session), nil
}

// SelectAnswer записывает ответ в сессии
func (m *Manager) SelectAnswer(sessionID string, questionID uint, letter string) error {
	session, err := m.GetSession(sessionID)
	if err != nil {
		return err
	}
	return session.SelectAnswer(questionID, letter)
}

// Navigate переводит позицию сессии на вопрос index
func (m *Manager) Navigate(sessionID string, index int) error {
	session, err := m.GetSession(sessionID)
	if err != nil {
		return err
	}
	return session.Navigate(index)
}

// Progress возвращает снимок прогресса сессии
func (m *Manager) Progress(sessionID string) (*Progress, error) {
	session, err := m.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	p := session.Snapshot(m.deps.Clock.Now())
	return &p, nil
}

// Submit завершает сессию и записывает попытку в журнал.
// При force=false и неотвеченных вопросах возвращает ErrIncompleteAnswers
// (клиент показывает подтверждение и повторяет с force=true).
// Идемпотентность: мьютекс сессии отсекает гонку внутри процесса,
// SetNX-блокировка в кеше отсекает сабмит из второй вкладки.
func (m *Manager) Submit(ctx context.Context, sessionID string, force bool) (*entity.Attempt, error) {
	session, err := m.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	return m.submit(ctx, session, force, false)
}

func (m *Manager) submit(ctx context.Context, session *Session, force, auto bool) (*entity.Attempt, error) {
	submission, err := session.BeginSubmit(force)
	if err != nil {
		return nil, err
	}

	lockKey := fmt.Sprintf("session:submit:%s", session.ID)
	if m.deps.CacheRepo != nil {
		acquired, lockErr := m.deps.CacheRepo.SetNX(lockKey, "1", m.config.SubmitLockTTL)
		if lockErr != nil {
			// Кеш недоступен: мьютекс сессии остается основной защитой
			log.Printf("[SessionManager] Кеш недоступен для блокировки сабмита %s: %v", session.ID, lockErr)
		} else if !acquired {
			session.FailSubmit()
			return nil, ErrSubmitInProgress
		}
	}

	now := m.deps.Clock.Now()
	submission.TimeSpentSeconds = session.TimeSpentSeconds(now)
	submission.AutoSubmitted = auto

	attempt, err := m.deps.Recorder.RecordAttempt(ctx, submission)
	if err != nil {
		session.FailSubmit()
		if m.deps.CacheRepo != nil {
			if delErr := m.deps.CacheRepo.Delete(lockKey); delErr != nil {
				log.Printf("[SessionManager] Не удалось снять блокировку сабмита %s: %v", session.ID, delErr)
			}
		}
		return nil, err
	}

	session.MarkSubmitted()
	m.teardown(session)

	if m.deps.Notifier != nil {
		m.deps.Notifier.SessionResultsAvailable(session.ID, session.UserID, attempt.ID)
	}

	log.Printf("[SessionManager] Сессия %s завершена, попытка #%d записана (auto=%v)",
		session.ID, attempt.AttemptNumber, auto)
	return attempt, nil
}

// CancelSession снимает сессию без записи попытки (студент вышел).
// Журнал попыток не трогаем: брошенная сессия попыткой не считается.
func (m *Manager) CancelSession(sessionID string) error {
	session, err := m.GetSession(sessionID)
	if err != nil {
		return err
	}
	m.teardown(session)
	log.Printf("[SessionManager] Сессия %s отменена без записи", sessionID)
	return nil
}

// runTimer ведет таймер сессии: тик раз в TickInterval, автосабмит на нуле.
// Остаток всегда пересчитывается от дедлайна, поэтому дрейф тикера не
// сдвигает момент истечения. Горутина завершается по отмене контекста
// или по истечению времени.
func (m *Manager) runTimer(ctx context.Context, session *Session) {
	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			secondsLeft, expired := session.Tick(m.deps.Clock.Now())

			if m.deps.Notifier != nil {
				m.deps.Notifier.SessionTick(session.ID, session.UserID, secondsLeft)
			}

			if expired {
				m.handleExpiry(ctx, session)
				return
			}
			if secondsLeft == 0 {
				// Сессия уже сабмитится или завершена
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// handleExpiry выполняет автосабмит истекшей сессии с текущими ответами
func (m *Manager) handleExpiry(ctx context.Context, session *Session) {
	log.Printf("[SessionManager] Время сессии %s истекло, автосабмит", session.ID)

	if m.deps.Notifier != nil {
		m.deps.Notifier.SessionAutoSubmitted(session.ID, session.UserID)
	}

	if _, err := m.submit(ctx, session, true, true); err != nil {
		// Ручной сабмит мог успеть первым, это не ошибка
		if err == ErrAlreadySubmitted || err == ErrSubmitInProgress {
			return
		}
		log.Printf("[SessionManager] Ошибка автосабмита сессии %s: %v", session.ID, err)
	}
}

// teardown снимает сессию с учета и останавливает ее таймер
func (m *Manager) teardown(session *Session) {
	if cancel, ok := m.cancels.LoadAndDelete(session.ID); ok {
		cancel.(context.CancelFunc)()
	}
	m.sessions.Delete(session.ID)
	m.active.Delete(activeKey(session.UserID, session.TestID))
}

// Shutdown останавливает таймеры всех активных сессий
func (m *Manager) Shutdown() {
	m.cancels.Range(func(key, value interface{}) bool {
		value.(context.CancelFunc)()
		m.cancels.Delete(key)
		return true
	})
	log.Printf("[SessionManager] Все таймеры сессий остановлены")
}
