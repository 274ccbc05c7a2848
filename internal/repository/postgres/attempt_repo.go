package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository.
// Таблица test_attempts append-only: записи никогда не обновляются и не
// удаляются, уникальный индекс (user_id, test_id, attempt_number) служит
// последней линией защиты от гонки при нумерации попыток.
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// CreateNumbered атомарно нумерует и записывает попытку.
// Подсчет существующих попыток и вставка идут одной транзакцией; лимит
// попыток проверяется здесь же, в момент записи. Гонку двух процессов,
// насчитавших одинаковый номер, ловит уникальный индекс: нарушение
// 23505 транслируется в ErrAttemptConflict, и сервис повторяет запись.
func (r *AttemptRepo) CreateNumbered(attempt *entity.Attempt, maxAttempts int) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.Attempt{}).
			Where("user_id = ? AND test_id = ?", attempt.UserID, attempt.TestID).
			Count(&count).Error; err != nil {
			return err
		}

		if maxAttempts > 0 && count >= int64(maxAttempts) {
			return fmt.Errorf("%w: %d of %d attempts used", apperrors.ErrAttemptLimit, count, maxAttempts)
		}

		attempt.AttemptNumber = int(count) + 1
		return tx.Create(attempt).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrAttemptConflict
		}
		return err
	}
	return nil
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

// GetByID возвращает попытку по ID
func (r *AttemptRepo) GetByID(id uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// GetByUserAndTest возвращает все попытки студента по тесту в порядке их номеров
func (r *AttemptRepo) GetByUserAndTest(userID, testID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.Where("user_id = ? AND test_id = ?", userID, testID).
		Order("attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}

// GetByTestID возвращает все попытки по тесту с пагинацией и total count
func (r *AttemptRepo) GetByTestID(testID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	var attempts []entity.Attempt
	var total int64

	// Транзакция для согласованности списка и общего количества
	tx := r.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	if err := tx.Model(&entity.Attempt{}).Where("test_id = ?", testID).Count(&total).Error; err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	err := tx.Where("test_id = ?", testID).
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	if err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

// GetByUserID возвращает все попытки студента по всем тестам
func (r *AttemptRepo) GetByUserID(userID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// BestScore возвращает лучший процент студента по тесту.
// nil без ошибки означает отсутствие попыток.
func (r *AttemptRepo) BestScore(userID, testID uint) (*int, error) {
	var best *int
	err := r.db.Model(&entity.Attempt{}).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Select("MAX(score)").
		Scan(&best).Error
	if err != nil {
		return nil, err
	}
	return best, nil
}
