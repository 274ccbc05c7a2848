package testsession

import "time"

// Clock абстрагирует источник времени для сессий.
// Продакшен использует системные часы, тесты подставляют управляемые.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock возвращает часы на основе системного времени
func NewRealClock() Clock {
	return realClock{}
}
