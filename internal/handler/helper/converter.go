package helper

import (
	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// QuestionOption представляет вариант ответа для фронтенда
type QuestionOption struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// ConvertOptionsToObjects преобразует массив строк в массив объектов
// с буквой и текстом. Буквы идут по позиции: A, B, C...
func ConvertOptionsToObjects(options entity.StringArray) []QuestionOption {
	converted := make([]QuestionOption, len(options))
	for i, opt := range options {
		if opt == "" {
			opt = "(empty option)"
		}
		converted[i] = QuestionOption{Letter: entity.OptionLetter(i), Text: opt}
	}
	return converted
}
