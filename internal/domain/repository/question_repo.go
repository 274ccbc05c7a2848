package repository

import (
	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	CreateBatch(questions []entity.Question) error
	GetByID(id uint) (*entity.Question, error)
	GetByTestID(testID uint) ([]entity.Question, error)
	Update(question *entity.Question) error
	Delete(id uint) error
}
