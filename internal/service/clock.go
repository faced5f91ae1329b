package service

import "time"

// Clock - источник текущего времени; в тестах подменяется
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock возвращает настоящие часы
func SystemClock() Clock {
	return systemClock{}
}

// FixedClock всегда возвращает один и тот же момент
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
