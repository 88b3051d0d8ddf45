package source

import (
	"time"

	"github.com/nvkalinin/month-grid/store"
)

// Generic генерирует календарь на год, в котором дни недели Weekend
// выходные, остальные — рабочие.
type Generic struct {
	Weekend []time.Weekday
}

func NewGeneric() *Generic {
	return &Generic{
		Weekend: []time.Weekday{time.Saturday, time.Sunday},
	}
}

func (g *Generic) GetYear(y int) (store.Months, error) {
	cal := make(store.Months, 12)

	for date := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC); date.Year() == y; date = date.AddDate(0, 0, 1) {
		mon := date.Month()
		if cal[mon] == nil {
			cal[mon] = make(store.Days, 31)
		}

		weekDay, _ := store.NewWeekDay(date.Weekday())
		day := store.Day{
			WeekDay: weekDay,
			Working: true,
			Type:    store.Normal,
		}
		if g.isWeekend(date.Weekday()) {
			day.Working = false
			day.Type = store.Weekend
		}

		cal[mon][date.Day()] = day
	}

	return cal, nil
}

func (g *Generic) isWeekend(w time.Weekday) bool {
	for _, weekday := range g.Weekend {
		if w == weekday {
			return true
		}
	}
	return false
}
