package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Типы вопросов. Сейчас оценивается только multiple_choice,
// но колонка оставлена расширяемой для других типов.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	// Обработка пустого массива байтов
	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
// Используется GORM для записи StringArray в JSONB в базе
func (o StringArray) Value() (driver.Value, error) {
	if o == nil || len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question представляет вопрос теста
type Question struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	TestID        uint        `gorm:"not null;index" json:"test_id"`
	Text          string      `gorm:"size:2000;not null" json:"text"`
	QuestionType  string      `gorm:"size:30;not null;default:'multiple_choice'" json:"question_type"`
	Options       StringArray `gorm:"type:jsonb;not null" json:"options"`
	CorrectAnswer string      `gorm:"size:1;not null" json:"-"` // Буквенная метка; скрыта от клиента
	Points        int         `gorm:"not null;default:1" json:"points"`
	OrderIndex    int         `gorm:"not null;default:0;index" json:"order_index"`
	Explanation   string      `gorm:"size:2000;not null;default:''" json:"explanation,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}

// IsCorrect проверяет, совпадает ли буква ответа с правильной.
// Сравнение строгое, с учетом регистра: метки всегда заглавные.
func (q *Question) IsCorrect(letter string) bool {
	return letter != "" && letter == q.CorrectAnswer
}

// CorrectOptionText возвращает текст правильного варианта.
// Вторым значением возвращает false, если CorrectAnswer не адресует вариант.
func (q *Question) CorrectOptionText() (string, bool) {
	idx := LetterIndex(q.CorrectAnswer)
	if idx < 0 || idx >= len(q.Options) {
		return "", false
	}
	return q.Options[idx], true
}

// OptionText возвращает текст варианта по буквенной метке.
// Для метки, не адресующей вариант (например, варианты были отредактированы
// после записи попытки), возвращает false вместо паники.
func (q *Question) OptionText(letter string) (string, bool) {
	idx := LetterIndex(letter)
	if idx < 0 || idx >= len(q.Options) {
		return "", false
	}
	return q.Options[idx], true
}

// Validate проверяет целостность вопроса перед началом сессии.
// Ошибка здесь — конфигурационная: тест нельзя проходить, пока вопрос не исправлен.
func (q *Question) Validate() error {
	if len(q.Options) < 2 {
		return fmt.Errorf("question #%d: at least 2 options required, got %d", q.ID, len(q.Options))
	}
	if err := ValidateOptionCount(len(q.Options)); err != nil {
		return fmt.Errorf("question #%d: %w", q.ID, err)
	}
	if !IsValidLetterFor(q.CorrectAnswer, len(q.Options)) {
		return fmt.Errorf("question #%d: correct answer %q does not address any of %d options", q.ID, q.CorrectAnswer, len(q.Options))
	}
	if q.Points <= 0 {
		return fmt.Errorf("question #%d: points must be positive, got %d", q.ID, q.Points)
	}
	return nil
}
