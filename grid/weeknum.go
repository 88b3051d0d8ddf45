package grid

import (
	"math"
	"time"
)

type WeekNumberType string

const (
	First4DayWeek  WeekNumberType = "first-4-day-week"  // Неделя привязана к своей среде.
	FirstDayOfYear WeekNumberType = "first-day-of-year" // Неделя привязана к своей субботе.
	FirstFullWeek  WeekNumberType = "first-full-week"   // Неделя привязана к своему воскресенью.
)

const msPerDay = 864e5

type WeekNumber struct {
	OriginalDate time.Time
	FixedDate    time.Time // Дата, по которой считается номер недели.
	WeekNumber   int
}

// ComputeWeekNumber считает номер недели для date по правилу t.
// Для неизвестного t дата не сдвигается, ошибки нет: номер считается по самой date.
func ComputeWeekNumber(t WeekNumberType, date time.Time) WeekNumber {
	fixed := fixedDate(t, date)
	firstDayOfYear := time.Date(fixed.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := float64(fixed.UnixMilli()-firstDayOfYear.UnixMilli()) / msPerDay

	return WeekNumber{
		OriginalDate: date,
		FixedDate:    fixed,
		WeekNumber:   int(math.Ceil((days + 1) / 7)),
	}
}

func fixedDate(t WeekNumberType, date time.Time) time.Time {
	utc := date.UTC()
	wd := int(utc.Weekday())
	y, m, d := utc.Date()

	switch t {
	case First4DayWeek:
		return time.Date(y, m, d-wd+3, 0, 0, 0, 0, time.UTC)
	case FirstDayOfYear:
		return time.Date(y, m, d-wd+6, 0, 0, 0, 0, time.UTC)
	case FirstFullWeek:
		return time.Date(y, m, d-wd, 0, 0, 0, 0, time.UTC)
	default:
		return date
	}
}
