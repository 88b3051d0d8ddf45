// Package store описывает данные о выходных и праздничных днях, которые сетка месяца
// показывает как недоступные.
package store

import (
	"sort"
	"time"
)

type DayType string

const (
	Normal     DayType = "normal"     // Обычный рабочий день.
	Weekend    DayType = "weekend"    // Выходной.
	PreHoliday DayType = "preHoliday" // Сокращенный рабочий день перед праздником.
	Holiday    DayType = "holiday"    // Праздник.
	NonWorking DayType = "noWork"     // Нерабочий по решению (не праздник и не выходной).
)

type WeekDay string

const (
	Monday    WeekDay = "mon"
	Tuesday   WeekDay = "tue"
	Wednesday WeekDay = "wed"
	Thursday  WeekDay = "thu"
	Friday    WeekDay = "fri"
	Saturday  WeekDay = "sat"
	Sunday    WeekDay = "sun"
)

var weekDays = [...]WeekDay{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func NewWeekDay(wd time.Weekday) (WeekDay, bool) {
	if wd < time.Sunday || wd > time.Saturday {
		return "", false
	}
	return weekDays[wd], true
}

// Weekday — обратное преобразование для NewWeekDay.
func (w WeekDay) Weekday() (time.Weekday, bool) {
	for i, wd := range weekDays {
		if wd == w {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

type Day struct {
	WeekDay WeekDay `json:"weekDay,omitempty" yaml:"weekDay,omitempty"`
	Working bool    `json:"working" yaml:"working"`
	Type    DayType `json:"type,omitempty" yaml:"type,omitempty"`
	Desc    string  `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// Off — день нельзя выбрать в сетке.
func (d Day) Off() bool {
	return !d.Working
}

type Days map[int]Day // Ключ — число месяца.

type Months map[time.Month]Days

func (m Days) Copy() Days {
	mCopy := make(Days, len(m))
	for dayNum, day := range m {
		mCopy[dayNum] = day
	}
	return mCopy
}

func (y Months) Copy() Months {
	yCopy := make(Months, len(y))
	for monNum, month := range y {
		yCopy[monNum] = month.Copy()
	}
	return yCopy
}

// OffTimestamps возвращает нерабочие дни месяца как метки времени в мс (полночь UTC)
// по возрастанию, в том виде, в котором их принимает grid.DaysOpts.DisabledDates.
// Числа, которых нет в месяце, пропускаются.
func (m Days) OffTimestamps(y int, mon time.Month) []int64 {
	nums := make([]int, 0, len(m))
	for num, day := range m {
		if day.Off() {
			nums = append(nums, num)
		}
	}
	sort.Ints(nums)

	res := make([]int64, 0, len(nums))
	for _, num := range nums {
		d := time.Date(y, mon, num, 0, 0, 0, 0, time.UTC)
		if d.Month() != mon {
			continue
		}
		res = append(res, d.UnixMilli())
	}
	return res
}
