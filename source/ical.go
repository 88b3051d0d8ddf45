package source

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/nvkalinin/month-grid/log"
	"github.com/nvkalinin/month-grid/store"
)

// Длинные события (например, «каникулы») обрезаются, чтобы битый DTEND не раздул календарь.
const maxEventDays = 366

// ICal берет праздники из календаря iCalendar (RFC 5545). Каждый день, который покрывает
// событие, становится нерабочим, SUMMARY события — описанием дня.
type ICal struct {
	Location string       // Путь к .ics или http(s) URL.
	Client   *http.Client // Только для URL.
}

func (c *ICal) GetYear(y int) (store.Months, error) {
	cal, err := c.load()
	if err != nil {
		return nil, err
	}

	months := make(store.Months, 12)
	for _, ev := range cal.Events() {
		start, err := ev.GetStartAt()
		if err != nil {
			log.Printf("[WARN] source/ical skipping event %s: %v", ev.Id(), err)
			continue
		}

		// DTEND не включается. Без DTEND событие занимает один день.
		days := 1
		if end, err := ev.GetEndAt(); err == nil {
			days = daysBetween(start, end)
		}
		if days > maxEventDays {
			log.Printf("[WARN] source/ical event %s is %d days long, truncated to %d", ev.Id(), days, maxEventDays)
			days = maxEventDays
		}

		summary := ""
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
			summary = strings.TrimSpace(p.Value)
		}

		sy, sm, sd := start.Date()
		for i := 0; i < days; i++ {
			date := time.Date(sy, sm, sd+i, 0, 0, 0, 0, time.UTC)
			if date.Year() != y {
				continue
			}
			addHoliday(months, date, summary)
		}
	}

	return months, nil
}

func (c *ICal) load() (*ics.Calendar, error) {
	var r io.ReadCloser

	if strings.HasPrefix(c.Location, "http://") || strings.HasPrefix(c.Location, "https://") {
		client := c.Client
		if client == nil {
			client = http.DefaultClient
		}

		resp, err := client.Get(c.Location)
		if err != nil {
			return nil, fmt.Errorf("source/ical cannot GET %s: %w", c.Location, err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("source/ical cannot GET %s: status %d", c.Location, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(c.Location)
		if err != nil {
			return nil, fmt.Errorf("source/ical cannot open %s: %w", c.Location, err)
		}
		r = f
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Printf("[WARN] source/ical cannot close %s: %v", c.Location, err)
		}
	}()

	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("source/ical cannot parse %s: %w", c.Location, err)
	}
	return cal, nil
}

func daysBetween(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.In(start.Location()).Date()
	s := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)

	days := int(e.Sub(s).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

func addHoliday(months store.Months, date time.Time, desc string) {
	mon := date.Month()
	if months[mon] == nil {
		months[mon] = make(store.Days)
	}

	weekDay, _ := store.NewWeekDay(date.Weekday())
	day := store.Day{
		WeekDay: weekDay,
		Working: false,
		Type:    store.Holiday,
		Desc:    desc,
	}

	// Несколько событий в один день — описания через "; ".
	if prev, ok := months[mon][date.Day()]; ok && prev.Desc != "" && desc != "" && prev.Desc != desc {
		day.Desc = prev.Desc + "; " + desc
	}
	months[mon][date.Day()] = day
}
