package testsession

import (
	"sync"
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// Session — серверная сессия прохождения теста одним студентом.
// Держит снимок вопросов, выбранные ответы и позицию навигации.
// Все операции защищены мьютексом, переходы состояний строго
// in_progress -> submitting -> submitted: повторный сабмит невозможен.
// Неудачная запись оставляет сессию в submitting с сохраненными
// ответами, разрешая только повтор сабмита.
type Session struct {
	ID       string
	UserID   uint
	CohortID uint
	TestID   uint

	mu        sync.Mutex
	test      *entity.Test
	questions []entity.Question
	answers   entity.AnswerMap
	current   int
	state     string
	// Взведен после неудачной записи попытки: сессия остается в
	// submitting, но повторный BeginSubmit разрешен
	submitFailed bool

	startedAt   time.Time
	deadline    time.Time
	hasDeadline bool
}

// Progress — снимок состояния сессии для клиента
type Progress struct {
	SessionID     string `json:"session_id"`
	TestID        uint   `json:"test_id"`
	State         string `json:"state"`
	CurrentIndex  int    `json:"current_index"`
	QuestionCount int    `json:"question_count"`
	AnsweredCount int    `json:"answered_count"`
	// -1 для тестов без ограничения по времени
	SecondsLeft int `json:"seconds_left"`
}

// NewSession создает сессию из снимка теста. Вопросы фиксируются в
// порядке order_index на момент старта: правки теста после старта
// на идущую сессию не влияют.
func NewSession(id string, userID, cohortID uint, test *entity.Test, now time.Time) *Session {
	s := &Session{
		ID:        id,
		UserID:    userID,
		CohortID:  cohortID,
		TestID:    test.ID,
		test:      test,
		questions: test.OrderedQuestions(),
		answers:   make(entity.AnswerMap),
		state:     StateInProgress,
		startedAt: now,
	}
	if test.HasTimeLimit() {
		s.deadline = now.Add(time.Duration(test.TimeLimitMinutes) * time.Minute)
		s.hasDeadline = true
	}
	return s
}

// Test возвращает снимок теста, зафиксированный при старте сессии
func (s *Session) Test() *entity.Test {
	return s.test
}

// Questions возвращает зафиксированный порядок вопросов сессии
func (s *Session) Questions() []entity.Question {
	return s.questions
}

// SelectAnswer записывает или заменяет ответ на вопрос.
// Буква должна попадать в диапазон вариантов вопроса.
func (s *Session) SelectAnswer(questionID uint, letter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureInProgressLocked(); err != nil {
		return err
	}

	var question *entity.Question
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			question = &s.questions[i]
			break
		}
	}
	if question == nil {
		return ErrQuestionNotInSession
	}

	if !entity.IsValidLetterFor(letter, question.OptionsCount()) {
		return ErrInvalidAnswer
	}

	s.answers[questionID] = letter
	return nil
}

// Navigate переводит позицию на вопрос с индексом index.
// Индекс за пределами снимка вопросов прижимается к границе.
func (s *Session) Navigate(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureInProgressLocked(); err != nil {
		return err
	}
	s.current = s.clampIndexLocked(index)
	return nil
}

// Next переводит позицию на следующий вопрос. На последнем вопросе
// позиция не меняется.
func (s *Session) Next() error {
	return s.step(1)
}

// Prev переводит позицию на предыдущий вопрос. На первом вопросе
// позиция не меняется.
func (s *Session) Prev() error {
	return s.step(-1)
}

func (s *Session) step(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureInProgressLocked(); err != nil {
		return err
	}
	s.current = s.clampIndexLocked(s.current + delta)
	return nil
}

func (s *Session) clampIndexLocked(index int) int {
	if index < 0 || len(s.questions) == 0 {
		return 0
	}
	if index > len(s.questions)-1 {
		return len(s.questions) - 1
	}
	return index
}

// Tick пересчитывает остаток времени по настенным часам.
// Возвращает остаток в секундах и флаг истечения. Остаток считается
// от дедлайна, а не декрементом счетчика: пропущенные тики не
// растягивают сессию. Для теста без лимита остаток равен -1.
func (s *Session) Tick(now time.Time) (secondsLeft int, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasDeadline {
		return -1, false
	}

	remaining := s.deadline.Sub(now)
	secondsLeft = int(remaining.Seconds())
	if secondsLeft < 0 {
		secondsLeft = 0
	}

	// Истечение сигнализируется только пока сессия активна
	expired = secondsLeft == 0 && s.state == StateInProgress
	return secondsLeft, expired
}

// Snapshot возвращает текущий прогресс сессии
func (s *Session) Snapshot(now time.Time) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	secondsLeft := -1
	if s.hasDeadline {
		secondsLeft = int(s.deadline.Sub(now).Seconds())
		if secondsLeft < 0 {
			secondsLeft = 0
		}
	}

	return Progress{
		SessionID:     s.ID,
		TestID:        s.TestID,
		State:         s.state,
		CurrentIndex:  s.current,
		QuestionCount: len(s.questions),
		AnsweredCount: len(s.answers),
		SecondsLeft:   secondsLeft,
	}
}

// State возвращает текущее состояние сессии
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UnansweredCount возвращает количество вопросов без ответа
func (s *Session) UnansweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions) - len(s.answers)
}

// BeginSubmit переводит сессию в состояние submitting.
// При force=false и неполных ответах возвращает ErrIncompleteAnswers:
// клиент должен подтвердить сабмит и повторить с force=true.
// Автосабмит по таймеру всегда использует force=true.
func (s *Session) BeginSubmit(force bool) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitted:
		return nil, ErrAlreadySubmitted
	case StateSubmitting:
		if !s.submitFailed {
			return nil, ErrSubmitInProgress
		}
		// Предыдущая запись не удалась: повтор разрешен
	}

	if !force && len(s.answers) < len(s.questions) {
		return nil, ErrIncompleteAnswers
	}

	s.submitFailed = false
	s.state = StateSubmitting

	return &Submission{
		SessionID: s.ID,
		UserID:    s.UserID,
		CohortID:  s.CohortID,
		TestID:    s.TestID,
		Answers:   s.answers.Clone(),
	}, nil
}

// MarkSubmitted фиксирует успешную запись попытки
func (s *Session) MarkSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSubmitted
}

// FailSubmit помечает неудачную запись попытки. Сессия остается в
// submitting: ответы сохранены, но их изменение по-прежнему заблокировано,
// разрешен только повторный сабмит.
func (s *Session) FailSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		s.submitFailed = true
	}
}

// TimeSpentSeconds возвращает фактическое время сессии по настенным часам
func (s *Session) TimeSpentSeconds(now time.Time) int {
	spent := int(now.Sub(s.startedAt).Seconds())
	if spent < 0 {
		spent = 0
	}
	return spent
}

func (s *Session) ensureInProgressLocked() error {
	switch s.state {
	case StateSubmitted:
		return ErrAlreadySubmitted
	case StateSubmitting:
		return ErrSubmitInProgress
	}
	return nil
}
