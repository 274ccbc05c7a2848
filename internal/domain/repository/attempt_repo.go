package repository

import (
	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с журналом попыток.
// Журнал append-only: методов обновления или удаления попыток нет.
type AttemptRepository interface {
	// CreateNumbered атомарно присваивает попытке следующий номер и
	// записывает ее. Подсчет и вставка выполняются одной транзакцией;
	// при maxAttempts > 0 лимит проверяется там же, в момент записи.
	// Возвращает ErrAttemptLimit при исчерпанном лимите и
	// ErrAttemptConflict, если конкурентная запись заняла номер
	// (вызывающий повторяет с пересчетом).
	CreateNumbered(attempt *entity.Attempt, maxAttempts int) error

	GetByID(id uint) (*entity.Attempt, error)
	GetByUserAndTest(userID, testID uint) ([]entity.Attempt, error)
	GetByTestID(testID uint, limit, offset int) ([]entity.Attempt, int64, error)
	GetByUserID(userID uint) ([]entity.Attempt, error)
	BestScore(userID, testID uint) (*int, error)
}
