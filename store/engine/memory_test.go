package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/nvkalinin/month-grid/store"
	"github.com/stretchr/testify/assert"
)

func newTestMemory() *Memory {
	return &Memory{store: map[int]store.Months{
		2022: {
			time.January: {
				2: {Working: false, Type: store.Holiday},
			},
		},
	}}
}

func TestMemory_FindDay(t *testing.T) {
	mem := newTestMemory()

	// Нормальный сценарий.
	day, ok := mem.FindDay(2022, time.January, 2)
	assert.Equal(t, &store.Day{Working: false, Type: store.Holiday}, day)
	assert.True(t, ok)

	// Изменение полей day не должно влиять на mem.store.
	day.Working = true
	assert.False(t, mem.store[2022][time.January][2].Working)

	// Когда нет искомой даты.
	day, ok = mem.FindDay(2022, time.January, 3)
	assert.Nil(t, day)
	assert.False(t, ok)

	day, ok = mem.FindDay(2022, time.February, 3)
	assert.Nil(t, day)
	assert.False(t, ok)

	day, ok = mem.FindDay(2023, time.February, 3)
	assert.Nil(t, day)
	assert.False(t, ok)
}

func TestMemory_FindMonth(t *testing.T) {
	mem := newTestMemory()

	// Нормальный сценарий.
	mon, ok := mem.FindMonth(2022, time.January)
	expMon := store.Days{
		2: {Working: false, Type: store.Holiday},
	}
	assert.Equal(t, expMon, mon)
	assert.True(t, ok)

	// Изменение mon не должно влиять на mem.store.
	mon[2] = store.Day{Working: true}
	assert.False(t, mem.store[2022][time.January][2].Working)

	// Когда нет искомого месяца.
	mon, ok = mem.FindMonth(2022, time.February)
	assert.Nil(t, mon)
	assert.False(t, ok)

	mon, ok = mem.FindMonth(2023, time.February)
	assert.Nil(t, mon)
	assert.False(t, ok)
}

func TestMemory_FindYear(t *testing.T) {
	mem := newTestMemory()

	// Нормальный сценарий.
	year, ok := mem.FindYear(2022)
	expYear := store.Months{
		time.January: {
			2: {Working: false, Type: store.Holiday},
		},
	}
	assert.Equal(t, expYear, year)
	assert.True(t, ok)

	// Изменение year не должно влиять на mem.store.
	year[time.January][2] = store.Day{Working: true}
	assert.False(t, mem.store[2022][time.January][2].Working)

	// Когда нет искомого года.
	year, ok = mem.FindYear(2023)
	assert.Nil(t, year)
	assert.False(t, ok)
}

func TestMemory_PutYear(t *testing.T) {
	mem := NewMemory()

	yearToSave := store.Months{
		time.January: {
			2: {Working: false, Type: store.Holiday},
		},
	}
	err := mem.PutYear(2022, yearToSave)
	assert.NoError(t, err)

	year, ok := mem.FindYear(2022)
	assert.True(t, ok)
	assert.Equal(t, yearToSave, year)

	// Изменение аргумента для PutYear не должно влиять на mem.store.
	yearToSave[time.January][2] = store.Day{Working: true}
	assert.False(t, mem.store[2022][time.January][2].Working)
}

func TestMemory_concurrent(t *testing.T) {
	mem := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(y int) {
			defer wg.Done()
			_ = mem.PutYear(y, store.Months{time.May: {1: {Working: false}}})
		}(2000 + i)
		go func(y int) {
			defer wg.Done()
			mem.FindMonth(y, time.May)
		}(2000 + i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		_, ok := mem.FindDay(2000+i, time.May, 1)
		assert.True(t, ok)
	}
}
