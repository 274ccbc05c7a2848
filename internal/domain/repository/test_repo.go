package repository

import (
	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// TestRepository определяет методы для работы с тестами
type TestRepository interface {
	Create(test *entity.Test) error
	GetByID(id uint) (*entity.Test, error)
	GetWithQuestions(id uint) (*entity.Test, error)
	List(limit, offset int) ([]entity.Test, int64, error)
	Update(test *entity.Test) error
	Delete(id uint) error
}
