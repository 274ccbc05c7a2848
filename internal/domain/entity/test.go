package entity

import (
	"fmt"
	"sort"
	"time"
)

// Test представляет тест (набор вопросов с настройками оценивания)
type Test struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Title              string     `gorm:"size:200;not null" json:"title"`
	Description        string     `gorm:"size:1000;not null;default:''" json:"description"`
	TimeLimitMinutes   int        `gorm:"not null;default:0" json:"time_limit_minutes"` // 0 = без лимита
	PassingScore       int        `gorm:"not null;default:70" json:"passing_score"`     // Порог в процентах, 0-100
	MaxAttempts        int        `gorm:"not null;default:0" json:"max_attempts"`       // 0 = без ограничения
	ShowCorrectAnswers bool       `gorm:"not null;default:true" json:"show_correct_answers"`
	CreatedBy          uint       `gorm:"not null;index" json:"created_by"`
	Questions          []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Test) TableName() string {
	return "tests"
}

// HasTimeLimit проверяет, установлен ли лимит времени
func (t *Test) HasTimeLimit() bool {
	return t.TimeLimitMinutes > 0
}

// HasAttemptLimit проверяет, ограничено ли количество попыток
func (t *Test) HasAttemptLimit() bool {
	return t.MaxAttempts > 0
}

// TotalPoints возвращает сумму очков всех вопросов теста
func (t *Test) TotalPoints() int {
	total := 0
	for i := range t.Questions {
		total += t.Questions[i].Points
	}
	return total
}

// OrderedQuestions возвращает вопросы, отсортированные по OrderIndex.
// OrderIndex стабилен, но не обязан быть непрерывным.
func (t *Test) OrderedQuestions() []Question {
	questions := make([]Question, len(t.Questions))
	copy(questions, t.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].OrderIndex < questions[j].OrderIndex
	})
	return questions
}

// ValidateForTaking проверяет, что тест пригоден для прохождения.
// Конфигурационные ошибки здесь блокируют старт сессии ДО любого
// обращения к движку подсчета (деление на ноль и т.п.).
func (t *Test) ValidateForTaking() error {
	if len(t.Questions) == 0 {
		return fmt.Errorf("test #%d has no questions", t.ID)
	}
	if t.PassingScore < 0 || t.PassingScore > 100 {
		return fmt.Errorf("test #%d: passing score %d out of range 0-100", t.ID, t.PassingScore)
	}
	for i := range t.Questions {
		if err := t.Questions[i].Validate(); err != nil {
			return err
		}
	}
	if t.TotalPoints() <= 0 {
		return fmt.Errorf("test #%d has zero total points", t.ID)
	}
	return nil
}
