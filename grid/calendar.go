// Package grid вычисляет данные для отрисовки месяца: строку заголовков с днями недели
// и сетку 6×7 (6×8 с номерами недель) с ячейками дней. Пакет ничего не рисует и не хранит,
// все даты — UTC.
package grid

import "time"

type Opts struct {
	FirstDayOfWeek int
	ShowWeekNumber bool
	WeekNumberType WeekNumberType
	Locale         string // BCP 47, используется только для форматтеров по умолчанию.
	SelectedDate   time.Time

	DisabledDates []int64
	DisabledDays  []time.Weekday
	Min           time.Time
	Max           time.Time
	IDOffset      int

	Formatters Formatters // Пустые поля заменяются на NewFormatters(Locale).
}

type Result struct {
	Weekdays    []Weekday   `json:"weekdays"`
	DaysInMonth DaysInMonth `json:"daysInMonth"`
}

// Calendar строит заголовок и сетку месяца opts.SelectedDate.
func Calendar(opts Opts) Result {
	f := opts.Formatters.orDefault(func() Formatters {
		return NewFormatters(opts.Locale)
	})

	weekdays := Weekdays(WeekdaysOpts{
		FirstDayOfWeek:         opts.FirstDayOfWeek,
		ShowWeekNumber:         opts.ShowWeekNumber,
		LongWeekdayFormatter:   f.LongWeekday,
		NarrowWeekdayFormatter: f.NarrowWeekday,
	})

	days := Days(DaysOpts{
		FirstDayOfWeek:    opts.FirstDayOfWeek,
		SelectedDate:      opts.SelectedDate,
		ShowWeekNumber:    opts.ShowWeekNumber,
		WeekNumberType:    opts.WeekNumberType,
		DisabledDates:     opts.DisabledDates,
		DisabledDays:      opts.DisabledDays,
		Min:               opts.Min,
		Max:               opts.Max,
		IDOffset:          opts.IDOffset,
		FullDateFormatter: f.FullDate,
		DayFormatter:      f.Day,
	})

	return Result{
		Weekdays:    weekdays,
		DaysInMonth: days,
	}
}
