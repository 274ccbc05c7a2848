package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния
	// (например, повторный сабмит уже завершенной сессии).
	ErrConflict = errors.New("resource state conflict")

	// ErrAttemptConflict используется при конфликте номера попытки:
	// две конкурентные записи претендовали на один attempt_number.
	// Показывается студенту как "submission conflict, please retry".
	ErrAttemptConflict = errors.New("attempt number conflict")

	// ErrAttemptLimit используется, когда лимит попыток по тесту исчерпан.
	ErrAttemptLimit = errors.New("attempt limit reached")
)
