package grid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ISOLayout — ISO 8601 с миллисекундами, зона всегда Z.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Сетка всегда из 6 строк, даже если месяцу хватает 4 или 5.
const rows = 6

type CellKind int

const (
	Filler    CellKind = iota // Пустая ячейка до начала или после конца месяца. Нулевое значение: Day{} — filler.
	RealDay                   // День месяца.
	WeekLabel                 // Номер недели в первой колонке.
)

type Day struct {
	Kind       CellKind
	FullDate   string // Только RealDay.
	Label      string // RealDay: полная дата, WeekLabel: "Week N".
	Value      string // RealDay: число месяца, WeekLabel: N.
	WeekNumber int    // Только WeekLabel.
	ID         string // RealDay: FullDate, WeekLabel: "Week N", Filler: номер текущего дня + IDOffset.
	Disabled   bool
}

// MarshalJSON сохраняет формат, который ожидает UI: у filler-ячеек null вместо пустых строк,
// номер недели и id filler-ячейки — числа.
func (d Day) MarshalJSON() ([]byte, error) {
	out := struct {
		FullDate *string `json:"fullDate"`
		Label    *string `json:"label"`
		Value    any     `json:"value"`
		ID       any     `json:"id"`
		Disabled bool    `json:"disabled"`
	}{Disabled: d.Disabled}

	switch d.Kind {
	case WeekLabel:
		out.Label = &d.Label
		out.Value = d.WeekNumber
		out.ID = d.ID
	case RealDay:
		out.FullDate = &d.FullDate
		out.Label = &d.Label
		out.Value = d.Value
		out.ID = d.ID
	default:
		// Пустой ID (Day{}) кодируется как 0.
		out.ID = json.Number(d.ID)
	}
	return json.Marshal(out)
}

type DaysOpts struct {
	FirstDayOfWeek int // 0 — воскресенье. Любое число, нормализуется по модулю 7.
	SelectedDate   time.Time
	ShowWeekNumber bool
	WeekNumberType WeekNumberType

	DisabledDates []int64        // Метки времени в мс, полночь UTC.
	DisabledDays  []time.Weekday
	Min           time.Time // Нулевое значение — без ограничения.
	Max           time.Time // Нулевое значение — без ограничения.

	IDOffset int // Влияет только на id filler-ячеек.

	FullDateFormatter Formatter
	DayFormatter      Formatter
}

type DaysInMonth struct {
	Calendar      [][]Day `json:"calendar"`
	DisabledDates []int64 `json:"disabledDates"` // В порядке обхода сетки.
}

// Days строит сетку месяца SelectedDate: 6 строк по 7 ячеек (8 с номерами недель).
func Days(opts DaysOpts) DaysInMonth {
	b := newMonthBuilder(opts)

	res := DaysInMonth{
		Calendar:      make([][]Day, 0, rows),
		DisabledDates: make([]int64, 0),
	}
	for row := 0; row < rows; row++ {
		cells := make([]Day, 0, b.cols)
		for col := 0; col < b.cols; col++ {
			var cell Day

			switch b.kindOf(row, col) {
			case WeekLabel:
				cell = b.weekLabel(row)
			case Filler:
				cell = b.filler()
			default:
				cell = b.realDay()
				if cell.Disabled {
					res.DisabledDates = append(res.DisabledDates, Timestamp(b.date(b.day-1)))
				}
			}

			cells = append(cells, cell)
		}
		res.Calendar = append(res.Calendar, cells)
	}

	return res
}

type monthBuilder struct {
	opts DaysOpts

	year      int
	month     time.Month
	totalDays int
	leading   int // Сколько пустых ячеек перед 1-м числом (без колонки недели).
	cols      int

	disabledDates map[int64]bool
	disabledDays  map[time.Weekday]bool

	day    int  // Следующее число месяца, которое попадет в сетку.
	filled bool // Все дни месяца уже в сетке.
}

func newMonthBuilder(opts DaysOpts) *monthBuilder {
	y, m, _ := opts.SelectedDate.UTC().Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)

	b := &monthBuilder{
		opts:          opts,
		year:          y,
		month:         m,
		totalDays:     time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day(),
		leading:       normalizeWeekday(int(first.Weekday()) - opts.FirstDayOfWeek),
		cols:          7,
		disabledDates: make(map[int64]bool, len(opts.DisabledDates)),
		disabledDays:  make(map[time.Weekday]bool, len(opts.DisabledDays)),
		day:           1,
	}
	if opts.ShowWeekNumber {
		b.cols = 8
	}
	for _, ts := range opts.DisabledDates {
		b.disabledDates[ts] = true
	}
	for _, wd := range opts.DisabledDays {
		b.disabledDays[wd] = true
	}

	return b
}

func (b *monthBuilder) kindOf(row, col int) CellKind {
	firstDayPos := b.leading
	if b.opts.ShowWeekNumber {
		firstDayPos++
	}

	switch {
	case b.opts.ShowWeekNumber && col == 0 && !b.filled:
		return WeekLabel
	case b.filled || col+row*b.cols < firstDayPos:
		return Filler
	default:
		return RealDay
	}
}

func (b *monthBuilder) weekLabel(row int) Day {
	// В первой строке неделя начинается раньше 1-го числа, на b.leading дней.
	start := b.day
	if row == 0 {
		start -= b.leading
	}

	wn := ComputeWeekNumber(b.opts.WeekNumberType, b.date(start)).WeekNumber
	label := fmt.Sprintf("Week %d", wn)

	return Day{
		Kind:       WeekLabel,
		Label:      label,
		Value:      strconv.Itoa(wn),
		WeekNumber: wn,
		ID:         label,
		Disabled:   true,
	}
}

func (b *monthBuilder) filler() Day {
	return Day{
		Kind:     Filler,
		ID:       strconv.Itoa(b.day + b.opts.IDOffset),
		Disabled: true,
	}
}

func (b *monthBuilder) realDay() Day {
	d := b.date(b.day)
	fullDate := d.Format(ISOLayout)

	cell := Day{
		Kind:     RealDay,
		FullDate: fullDate,
		Label:    format(b.opts.FullDateFormatter, d),
		Value:    format(b.opts.DayFormatter, d),
		ID:       fullDate,
		Disabled: b.isDisabled(d),
	}

	b.day++
	if b.day > b.totalDays {
		b.filled = true
	}
	return cell
}

func (b *monthBuilder) isDisabled(d time.Time) bool {
	ts := Timestamp(d)

	if b.disabledDays[d.Weekday()] || b.disabledDates[ts] {
		return true
	}
	if !b.opts.Min.IsZero() && ts < Timestamp(b.opts.Min) {
		return true
	}
	if !b.opts.Max.IsZero() && ts > Timestamp(b.opts.Max) {
		return true
	}
	return false
}

// date нормализует day как time.Date: 0 — последний день прошлого месяца и т. д.
func (b *monthBuilder) date(day int) time.Time {
	return time.Date(b.year, b.month, day, 0, 0, 0, 0, time.UTC)
}

// Timestamp возвращает метку времени в мс, в которой задаются DisabledDates.
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}

func normalizeWeekday(wd int) int {
	if wd >= 0 && wd < 7 {
		return wd
	}

	offset := 0
	if wd < 0 {
		offset = 7 * ((-wd + 6) / 7)
	}
	return (offset + wd) % 7
}
