package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

// TestRepo реализует repository.TestRepository
type TestRepo struct {
	db *gorm.DB
}

// NewTestRepo создает новый репозиторий тестов
func NewTestRepo(db *gorm.DB) *TestRepo {
	return &TestRepo{db: db}
}

// Create создает новый тест
func (r *TestRepo) Create(test *entity.Test) error {
	return r.db.Create(test).Error
}

// GetByID возвращает тест по ID (без вопросов)
func (r *TestRepo) GetByID(id uint) (*entity.Test, error) {
	var test entity.Test
	err := r.db.First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

// GetWithQuestions возвращает тест вместе с вопросами
func (r *TestRepo) GetWithQuestions(id uint) (*entity.Test, error) {
	var test entity.Test
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC, id ASC")
	}).First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

// List возвращает список тестов с пагинацией и total count
func (r *TestRepo) List(limit, offset int) ([]entity.Test, int64, error) {
	var tests []entity.Test
	var total int64

	if err := r.db.Model(&entity.Test{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Limit(limit).Offset(offset).Order("id DESC").Find(&tests).Error
	if err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}

// Update обновляет информацию о тесте
func (r *TestRepo) Update(test *entity.Test) error {
	return r.db.Save(test).Error
}

// Delete удаляет тест
func (r *TestRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Test{}, id).Error
}
