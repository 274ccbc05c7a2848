package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

// Значения по умолчанию для настроек теста
const (
	DefaultPassingScore = 70
)

// TestService предоставляет методы для работы с тестами и их вопросами
type TestService struct {
	testRepo     repository.TestRepository
	questionRepo repository.QuestionRepository
}

// NewTestService создает новый сервис тестов
func NewTestService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
) *TestService {
	return &TestService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
	}
}

// CreateTestInput описывает входные данные для создания теста
type CreateTestInput struct {
	Title              string
	Description        string
	TimeLimitMinutes   int
	PassingScore       *int
	MaxAttempts        int
	ShowCorrectAnswers bool
	CreatedBy          uint
}

// CreateTest создает новый тест с настройками
func (s *TestService) CreateTest(input CreateTestInput) (*entity.Test, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}

	passingScore := DefaultPassingScore
	if input.PassingScore != nil {
		passingScore = *input.PassingScore
	}
	if passingScore < 0 || passingScore > 100 {
		return nil, fmt.Errorf("%w: passing score must be between 0 and 100", apperrors.ErrValidation)
	}
	if input.TimeLimitMinutes < 0 {
		return nil, fmt.Errorf("%w: time limit cannot be negative", apperrors.ErrValidation)
	}
	if input.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: max attempts cannot be negative", apperrors.ErrValidation)
	}

	test := &entity.Test{
		Title:              title,
		Description:        input.Description,
		TimeLimitMinutes:   input.TimeLimitMinutes,
		PassingScore:       passingScore,
		MaxAttempts:        input.MaxAttempts,
		ShowCorrectAnswers: input.ShowCorrectAnswers,
		CreatedBy:          input.CreatedBy,
	}

	if err := s.testRepo.Create(test); err != nil {
		return nil, err
	}

	log.Printf("[TestService] Тест #%d '%s' создан", test.ID, test.Title)
	return test, nil
}

// UpdateTest обновляет настройки теста
func (s *TestService) UpdateTest(test *entity.Test) error {
	if test.PassingScore < 0 || test.PassingScore > 100 {
		return fmt.Errorf("%w: passing score must be between 0 and 100", apperrors.ErrValidation)
	}
	return s.testRepo.Update(test)
}

// DeleteTest удаляет тест вместе с вопросами
func (s *TestService) DeleteTest(id uint) error {
	if _, err := s.testRepo.GetByID(id); err != nil {
		return err
	}
	return s.testRepo.Delete(id)
}

// GetTestByID возвращает тест без вопросов
func (s *TestService) GetTestByID(id uint) (*entity.Test, error) {
	return s.testRepo.GetByID(id)
}

// GetTestWithQuestions возвращает тест вместе с вопросами
func (s *TestService) GetTestWithQuestions(id uint) (*entity.Test, error) {
	return s.testRepo.GetWithQuestions(id)
}

// ListTests возвращает список тестов с пагинацией
func (s *TestService) ListTests(page, pageSize int) ([]entity.Test, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.testRepo.List(pageSize, offset)
}

// QuestionInput описывает один вопрос при добавлении в тест
type QuestionInput struct {
	Text          string
	Options       []string
	CorrectOption int // индекс правильного варианта, 0-based
	Points        int
	Explanation   string
}

// AddQuestions добавляет пакет вопросов в тест.
// Порядок вопросов продолжает существующую нумерацию order_index.
func (s *TestService) AddQuestions(testID uint, inputs []QuestionInput) ([]entity.Question, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", apperrors.ErrValidation)
	}

	test, err := s.testRepo.GetByID(testID)
	if err != nil {
		return nil, err
	}

	existing, err := s.questionRepo.GetByTestID(testID)
	if err != nil {
		return nil, err
	}
	nextOrder := len(existing)

	questions := make([]entity.Question, 0, len(inputs))
	for i, input := range inputs {
		if err := entity.ValidateOptionCount(len(input.Options)); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", apperrors.ErrValidation, i+1, err)
		}
		if input.CorrectOption < 0 || input.CorrectOption >= len(input.Options) {
			return nil, fmt.Errorf("%w: question %d: correct option index out of range", apperrors.ErrValidation, i+1)
		}

		points := input.Points
		if points == 0 {
			points = 1
		}

		q := entity.Question{
			TestID:        test.ID,
			Text:          strings.TrimSpace(input.Text),
			QuestionType:  entity.QuestionTypeMultipleChoice,
			Options:       entity.StringArray(input.Options),
			CorrectAnswer: entity.OptionLetter(input.CorrectOption),
			Points:        points,
			OrderIndex:    nextOrder + i,
			Explanation:   input.Explanation,
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", apperrors.ErrValidation, i+1, err)
		}
		questions = append(questions, q)
	}

	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return nil, err
	}

	log.Printf("[TestService] В тест #%d добавлено %d вопросов", testID, len(questions))
	return questions, nil
}

// GetQuestion возвращает вопрос по ID
func (s *TestService) GetQuestion(id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(id)
}

// UpdateQuestion обновляет вопрос теста
func (s *TestService) UpdateQuestion(question *entity.Question) error {
	if err := question.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return s.questionRepo.Update(question)
}

// DeleteQuestion удаляет вопрос из теста
func (s *TestService) DeleteQuestion(id uint) error {
	if _, err := s.questionRepo.GetByID(id); err != nil {
		return err
	}
	return s.questionRepo.Delete(id)
}

// GetTestForTaking возвращает тест, пригодный для старта сессии.
// Непригодный к прохождению тест (без вопросов, с нулевой суммой очков,
// с некорректным порогом) отклоняется здесь, до создания сессии.
func (s *TestService) GetTestForTaking(id uint) (*entity.Test, error) {
	test, err := s.testRepo.GetWithQuestions(id)
	if err != nil {
		return nil, err
	}
	if err := test.ValidateForTaking(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTestNotTakeable, err)
	}
	return test, nil
}
