package parser

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nvkalinin/month-grid/log"
	"github.com/nvkalinin/month-grid/store"
)

const YearPlaceholder = "{year}"

// HTMLTable парсит страницу со списком праздников вида
//
//	<table class="holidays">
//	  <tr class="holiday"><td>2021-01-01</td><td>Новый год</td></tr>
//	  <tr class="preholiday"><td>2021-02-20</td><td>Сокращенный день</td></tr>
//	</table>
//
// Класс строки задает тип дня (holiday, weekend, preholiday, nowork), без класса — holiday.
type HTMLTable struct {
	Client    *http.Client
	UserAgent string
	URL       string // Может содержать {year}.
	Selector  string // По умолчанию "table.holidays tr".
}

func (h *HTMLTable) GetYear(y int) (store.Months, error) {
	dom, err := h.getPage(y)
	if err != nil {
		return nil, err
	}

	months := make(store.Months, 12)
	rows := dom.Find(h.selector())
	log.Printf("[DEBUG] parser/htmltable found %d rows", rows.Length())

	rows.Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			// Заголовок таблицы.
			return
		}

		rawDate := cells.Eq(0).Text()
		date, err := parseDate(rawDate)
		if err != nil {
			log.Printf("[WARN] parser/htmltable skipping row %d: invalid date '%s': %v", i, cleanText(rawDate), err)
			return
		}
		if date.Year() != y {
			log.Printf("[DEBUG] parser/htmltable skipping row %d: %s is not in %d", i, date.Format(dateLayout), y)
			return
		}

		weekDay, _ := store.NewWeekDay(date.Weekday())
		day := store.Day{
			WeekDay: weekDay,
			Working: false,
			Type:    store.Holiday,
		}
		if cells.Length() > 1 {
			day.Desc = cleanText(cells.Eq(1).Text())
		}

		switch {
		case row.HasClass("preholiday"):
			day.Working = true
			day.Type = store.PreHoliday
		case row.HasClass("weekend"):
			day.Type = store.Weekend
		case row.HasClass("nowork"):
			day.Type = store.NonWorking
		}

		mon := date.Month()
		if months[mon] == nil {
			months[mon] = make(store.Days)
		}
		if _, exists := months[mon][date.Day()]; exists {
			log.Printf("[WARN] parser/htmltable duplicate date %s at row %d, last one wins", date.Format(dateLayout), i)
		}
		months[mon][date.Day()] = day
	})

	return months, nil
}

func (h *HTMLTable) selector() string {
	if h.Selector != "" {
		return h.Selector
	}
	return "table.holidays tr"
}

func (h *HTMLTable) pageURL(y int) string {
	return strings.ReplaceAll(h.URL, YearPlaceholder, strconv.Itoa(y))
}

func (h *HTMLTable) getPage(y int) (*goquery.Document, error) {
	url := h.pageURL(y)
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("parser/htmltable cannot make request: %w", err)
	}

	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}
	log.Printf("[DEBUG] parser/htmltable year %d request: URL=%s", y, url)

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parser/htmltable cannot GET %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("[WARN] parser/htmltable cannot close response: %+v", err)
		}
	}()
	log.Printf("[DEBUG] parser/htmltable year %d response: status=%d", y, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parser/htmltable cannot GET %s: status %d", url, resp.StatusCode)
	}

	dom, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parser/htmltable cannot parse html: %w", err)
	}
	return dom, nil
}

