package clock

import (
	"sync"
	"time"
)

// Real провайдер текущего времени для production. Время всегда в UTC,
// чтобы метки в базе сравнивались одинаково для всех драйверов.
type Real struct{}

// Now возвращает текущее время
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Manual управляемые часы для тестов
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(now time.Time) *Manual {
	return &Manual{now: now.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now.UTC()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
