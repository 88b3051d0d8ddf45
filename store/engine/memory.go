package engine

import (
	"sync"
	"time"

	"github.com/nvkalinin/month-grid/store"
)

// Memory хранит календарь в памяти процесса. Данные теряются при перезапуске.
type Memory struct {
	mu    sync.RWMutex
	store map[int]store.Months
}

func NewMemory() *Memory {
	return &Memory{
		store: make(map[int]store.Months, 3),
	}
}

func (m *Memory) FindDay(y int, mon time.Month, d int) (*store.Day, bool) {
	month, ok := m.FindMonth(y, mon)
	if !ok {
		return nil, false
	}

	day, ok := month[d]
	if !ok {
		return nil, false
	}

	return &day, true
}

func (m *Memory) FindMonth(y int, mon time.Month) (store.Days, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	month, ok := m.store[y][mon]
	if !ok {
		return nil, false
	}

	return month.Copy(), true
}

func (m *Memory) FindYear(y int) (store.Months, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	year, ok := m.store[y]
	if !ok {
		return nil, false
	}

	return year.Copy(), true
}

func (m *Memory) PutYear(y int, data store.Months) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store[y] = data.Copy()
	return nil
}

func (m *Memory) Close() error {
	return nil
}
