package scoring

import (
	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// Заполнитель для неотвеченного вопроса в разборе результатов
const NoAnswerText = "No Answer"

// QuestionReview — разбор одного вопроса после завершения попытки
type QuestionReview struct {
	QuestionID        uint   `json:"question_id"`
	Text              string `json:"text"`
	YourAnswerLetter  string `json:"your_answer_letter"`
	YourAnswerText    string `json:"your_answer_text"`
	CorrectLetter     string `json:"correct_letter,omitempty"`
	CorrectAnswerText string `json:"correct_answer_text,omitempty"`
	IsCorrect         bool   `json:"is_correct"`
	Points            int    `json:"points"`
	PointsEarned      int    `json:"points_earned"`
	Explanation       string `json:"explanation,omitempty"`
}

// BuildReview строит поэлементный разбор попытки в порядке вопросов.
// Неотвеченные вопросы и буквы вне диапазона деградируют до NoAnswerText,
// паник на испорченных данных быть не должно. Правильные ответы и
// объяснения включаются только при includeCorrect (настройка теста
// show_correct_answers).
func BuildReview(questions []entity.Question, answers entity.AnswerMap, includeCorrect bool) []QuestionReview {
	reviews := make([]QuestionReview, 0, len(questions))

	for i := range questions {
		q := &questions[i]

		r := QuestionReview{
			QuestionID: q.ID,
			Text:       q.Text,
			Points:     q.Points,
		}

		letter, answered := answers[q.ID]
		if answered {
			if text, ok := q.OptionText(letter); ok {
				r.YourAnswerLetter = letter
				r.YourAnswerText = text
			} else {
				// Буква вне диапазона вариантов: считаем как без ответа
				r.YourAnswerText = NoAnswerText
			}
			if q.IsCorrect(letter) {
				r.IsCorrect = true
				r.PointsEarned = q.Points
			}
		} else {
			r.YourAnswerText = NoAnswerText
		}

		if includeCorrect {
			r.CorrectLetter = q.CorrectAnswer
			if text, ok := q.CorrectOptionText(); ok {
				r.CorrectAnswerText = text
			} else {
				r.CorrectAnswerText = NoAnswerText
			}
			r.Explanation = q.Explanation
		}

		reviews = append(reviews, r)
	}

	return reviews
}
