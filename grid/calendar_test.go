package grid

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendar(t *testing.T) {
	res := Calendar(Opts{
		FirstDayOfWeek: 1,
		ShowWeekNumber: true,
		WeekNumberType: First4DayWeek,
		Locale:         "en-US",
		SelectedDate:   utcDate(2021, time.February, 14),
		DisabledDays:   []time.Weekday{time.Sunday},
	})

	require.Len(t, res.Weekdays, 8)
	assert.Equal(t, Weekday{Label: "Week", Value: "Wk"}, res.Weekdays[0])
	assert.Equal(t, Weekday{Label: "Monday", Value: "M"}, res.Weekdays[1])
	assert.Equal(t, Weekday{Label: "Sunday", Value: "S"}, res.Weekdays[7])

	cal := res.DaysInMonth.Calendar
	require.Len(t, cal, 6)

	// С понедельника: 1 февраля 2021 сразу после колонки недели.
	first := cal[0][1]
	assert.Equal(t, "2021-02-01T00:00:00.000Z", first.ID)
	assert.Equal(t, "Mon, Feb 1, 2021", first.Label)
	assert.Equal(t, "1", first.Value)

	expDisabled := []int64{
		Timestamp(utcDate(2021, time.February, 7)),
		Timestamp(utcDate(2021, time.February, 14)),
		Timestamp(utcDate(2021, time.February, 21)),
		Timestamp(utcDate(2021, time.February, 28)),
	}
	assert.Equal(t, expDisabled, res.DaysInMonth.DisabledDates)
}

func TestCalendar_customFormatters(t *testing.T) {
	res := Calendar(Opts{
		Locale:       "ru",
		SelectedDate: utcDate(2021, time.February, 1),
		Formatters: Formatters{
			LongWeekday:   longWeekday,
			NarrowWeekday: narrowWeekday,
			Day: func(t time.Time) string {
				return "d" + strconv.Itoa(t.Day())
			},
			FullDate: fullDateFmt,
		},
	})

	// Переданные форматтеры используются как есть, локаль игнорируется.
	assert.Equal(t, Weekday{Label: "Sunday", Value: "S"}, res.Weekdays[0])
	assert.Equal(t, "d1", res.DaysInMonth.Calendar[0][1].Value)
	assert.Equal(t, "Mon, Feb 1, 2021", res.DaysInMonth.Calendar[0][1].Label)
}

func TestCalendar_partialFormatters(t *testing.T) {
	res := Calendar(Opts{
		Locale:       "en",
		SelectedDate: utcDate(2021, time.February, 1),
		Formatters: Formatters{
			Day: func(t time.Time) string {
				return "d" + strconv.Itoa(t.Day())
			},
		},
	})

	assert.Equal(t, Weekday{Label: "Sunday", Value: "S"}, res.Weekdays[0])
	assert.Equal(t, "d1", res.DaysInMonth.Calendar[0][1].Value)
	assert.Equal(t, "Mon, Feb 1, 2021", res.DaysInMonth.Calendar[0][1].Label)
}

func TestCalendar_idOffsetDefault(t *testing.T) {
	res := Calendar(Opts{SelectedDate: utcDate(2021, time.February, 1)})
	assert.Equal(t, "1", res.DaysInMonth.Calendar[0][0].ID)
}

func TestCalendar_idempotent(t *testing.T) {
	opts := Opts{
		FirstDayOfWeek: 3,
		ShowWeekNumber: true,
		WeekNumberType: FirstDayOfYear,
		Locale:         "de",
		SelectedDate:   utcDate(2024, time.February, 29),
		DisabledDates:  []int64{Timestamp(utcDate(2024, time.February, 14))},
		Min:            utcDate(2024, time.February, 2),
		IDOffset:       7,
	}

	assert.Equal(t, Calendar(opts), Calendar(opts))
}

func TestCalendar_json(t *testing.T) {
	res := Calendar(Opts{
		Locale:       "en-US",
		SelectedDate: utcDate(2021, time.February, 1),
		Min:          utcDate(2021, time.February, 2),
	})

	js, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded struct {
		Weekdays []struct {
			Label string `json:"label"`
			Value string `json:"value"`
		} `json:"weekdays"`
		DaysInMonth struct {
			Calendar      [][]map[string]any `json:"calendar"`
			DisabledDates []int64            `json:"disabledDates"`
		} `json:"daysInMonth"`
	}
	require.NoError(t, json.Unmarshal(js, &decoded))

	assert.Len(t, decoded.Weekdays, 7)
	assert.Equal(t, "Sunday", decoded.Weekdays[0].Label)
	assert.Len(t, decoded.DaysInMonth.Calendar, 6)
	assert.Equal(t, []int64{Timestamp(utcDate(2021, time.February, 1))}, decoded.DaysInMonth.DisabledDates)

	filler := decoded.DaysInMonth.Calendar[0][0]
	assert.Nil(t, filler["fullDate"])
	assert.Equal(t, float64(1), filler["id"])

	first := decoded.DaysInMonth.Calendar[0][1]
	assert.Equal(t, "2021-02-01T00:00:00.000Z", first["fullDate"])
	assert.Equal(t, true, first["disabled"])
}
