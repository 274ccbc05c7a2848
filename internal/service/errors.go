package service

import "errors"

// Определяем кастомные ошибки для сервисов
var (
	// ErrTestNotTakeable возвращается, когда тест нельзя проходить:
	// нет вопросов, некорректный правильный ответ или нулевая сумма очков.
	ErrTestNotTakeable = errors.New("test is not ready to be taken")
)
