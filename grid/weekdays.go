package grid

import "time"

// Formatter превращает дату в строку (название дня недели, число месяца и т. п.).
type Formatter func(time.Time) string

type Weekday struct {
	Label string `json:"label"` // Полное название.
	Value string `json:"value"` // Узкое (обычно одна буква).
}

var weekLabelHeader = Weekday{Label: "Week", Value: "Wk"}

type WeekdaysOpts struct {
	FirstDayOfWeek int
	ShowWeekNumber bool

	LongWeekdayFormatter   Formatter
	NarrowWeekdayFormatter Formatter
}

// Weekdays строит строку заголовков: 7 дней недели, начиная с FirstDayOfWeek (0 — воскресенье),
// и перед ними колонку недели, если ShowWeekNumber.
func Weekdays(opts WeekdaysOpts) []Weekday {
	fdow := opts.FirstDayOfWeek
	if fdow < 0 {
		fdow += 7
	}
	// 1 января 2017 — воскресенье, поэтому число января совпадает с днем недели + 1.
	// Остаток в Go, как и в JS, может быть отрицательным: для fdow < -7 якорь уходит в декабрь 2016,
	// time.Date это нормализует.
	anchor := 1 + fdow%7

	weekdays := make([]Weekday, 0, 8)
	if opts.ShowWeekNumber {
		weekdays = append(weekdays, weekLabelHeader)
	}

	for i := 0; i < 7; i++ {
		d := time.Date(2017, time.January, anchor+i, 0, 0, 0, 0, time.UTC)
		weekdays = append(weekdays, Weekday{
			Label: format(opts.LongWeekdayFormatter, d),
			Value: format(opts.NarrowWeekdayFormatter, d),
		})
	}

	return weekdays
}
