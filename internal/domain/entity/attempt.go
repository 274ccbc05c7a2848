package entity

import (
	"time"
)

// Attempt представляет одну зафиксированную попытку прохождения теста.
// Запись неизменяема: после создания ни одно поле не обновляется.
// AttemptNumber уникален в паре (user_id, test_id) — это закреплено
// уникальным индексом в БД, а не только логикой подсчета.
type Attempt struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TestID           uint      `gorm:"not null;index;uniqueIndex:idx_user_test_attempt" json:"test_id"`
	UserID           uint      `gorm:"not null;index;uniqueIndex:idx_user_test_attempt" json:"user_id"`
	CohortID         uint      `gorm:"not null;default:0;index" json:"cohort_id"`
	Answers          AnswerMap `gorm:"type:jsonb;not null" json:"answers"`
	Score            int       `gorm:"not null;default:0" json:"score"` // Процент, round(earned/total*100)
	PointsEarned     int       `gorm:"not null;default:0" json:"points_earned"`
	TotalPoints      int       `gorm:"not null;default:0" json:"total_points"`
	CorrectCount     int       `gorm:"not null;default:0" json:"correct_count"`
	Passed           bool      `gorm:"not null;default:false" json:"passed"`
	TimeSpentSeconds int       `gorm:"not null;default:0" json:"time_spent_seconds"`
	AttemptNumber    int       `gorm:"not null;uniqueIndex:idx_user_test_attempt" json:"attempt_number"` // 1-based
	SubmittedAt      time.Time `gorm:"not null" json:"submitted_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Attempt) TableName() string {
	return "test_attempts"
}
