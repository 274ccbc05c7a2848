package scoring

import (
	"fmt"
	"math"

	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// ScoreResult представляет итог подсчета одной попытки
type ScoreResult struct {
	ScorePercent int  `json:"score_percent"`
	PointsEarned int  `json:"points_earned"`
	TotalPoints  int  `json:"total_points"`
	CorrectCount int  `json:"correct_count"`
	Passed       bool `json:"passed"`
}

// Score подсчитывает результат попытки: чистая детерминированная функция
// (настройки теста, вопросы, карта ответов) -> ScoreResult.
//
// Правила:
//   - очки начисляются только за точное (с учетом регистра) совпадение
//     буквы ответа с CorrectAnswer; отрицательных очков и частичного
//     зачета нет;
//   - процент = round(earned/total*100) с округлением половины вверх;
//   - passed = процент >= passingScore (порог включительно).
//
// Порядок вопросов на результат не влияет. Нулевая сумма очков —
// конфигурационная ошибка, а не результат 0% или 100%: она должна быть
// отсеяна до старта сессии, но проверяется и здесь, т.к. именно это
// значение идет в знаменатель.
func Score(passingScore int, questions []entity.Question, answers entity.AnswerMap) (*ScoreResult, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("cannot score a test with no questions")
	}

	totalPoints := 0
	earnedPoints := 0
	correctCount := 0

	for i := range questions {
		q := &questions[i]
		totalPoints += q.Points

		letter, ok := answers[q.ID]
		if !ok {
			continue // Неотвеченный вопрос: ноль очков
		}
		if q.IsCorrect(letter) {
			earnedPoints += q.Points
			correctCount++
		}
	}

	if totalPoints <= 0 {
		return nil, fmt.Errorf("total points is zero, score is undefined")
	}

	scorePercent := int(math.Round(float64(earnedPoints) / float64(totalPoints) * 100))

	return &ScoreResult{
		ScorePercent: scorePercent,
		PointsEarned: earnedPoints,
		TotalPoints:  totalPoints,
		CorrectCount: correctCount,
		Passed:       scorePercent >= passingScore,
	}, nil
}
