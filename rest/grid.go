package rest

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nvkalinin/month-grid/grid"
	"github.com/nvkalinin/month-grid/log"
)

const dateLayout = "2006-01-02"

func (s *Server) gridCtrl(w http.ResponseWriter, r *http.Request) {
	y, err1 := yearParam(r)
	m, err2 := monthParam(r)
	if err1 != nil || err2 != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid date")
		return
	}

	opts, offDays, err := s.gridOpts(r.URL.Query())
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.SelectedDate = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	log.Printf("[DEBUG] rest grid %d-%02d: %+v, offDays=%v", y, m, opts, offDays)

	sendJsonResponse(w, s.Grid.Build(opts, offDays))
}

// gridOpts читает параметры запроса. Отсутствующие параметры берутся из Opts.GridDefaults.
func (s *Server) gridOpts(q url.Values) (opts grid.Opts, offDays bool, err error) {
	def := s.Opts.GridDefaults
	opts = grid.Opts{
		Locale:         def.Locale,
		FirstDayOfWeek: def.FirstDayOfWeek,
		ShowWeekNumber: def.ShowWeekNumber,
		WeekNumberType: def.WeekNumberType,
	}

	if v := q.Get("locale"); v != "" {
		opts.Locale = v
	}

	if v := q.Get("firstDayOfWeek"); v != "" {
		if opts.FirstDayOfWeek, err = strconv.Atoi(v); err != nil {
			return opts, false, fmt.Errorf("invalid firstDayOfWeek")
		}
	}

	if v := q.Get("showWeekNumber"); v != "" {
		if opts.ShowWeekNumber, err = strconv.ParseBool(v); err != nil {
			return opts, false, fmt.Errorf("invalid showWeekNumber")
		}
	}

	if v := q.Get("weekNumberType"); v != "" {
		t := grid.WeekNumberType(v)
		switch t {
		case grid.First4DayWeek, grid.FirstDayOfYear, grid.FirstFullWeek:
			opts.WeekNumberType = t
		default:
			return opts, false, fmt.Errorf("invalid weekNumberType")
		}
	}

	if v := q.Get("disabledDays"); v != "" {
		if opts.DisabledDays, err = parseWeekdays(v); err != nil {
			return opts, false, err
		}
	}

	if v := q.Get("disabledDates"); v != "" {
		if opts.DisabledDates, err = parseTimestamps(v); err != nil {
			return opts, false, err
		}
	}

	if v := q.Get("min"); v != "" {
		if opts.Min, err = time.Parse(dateLayout, v); err != nil {
			return opts, false, fmt.Errorf("invalid min")
		}
	}

	if v := q.Get("max"); v != "" {
		if opts.Max, err = time.Parse(dateLayout, v); err != nil {
			return opts, false, fmt.Errorf("invalid max")
		}
	}

	if v := q.Get("idOffset"); v != "" {
		if opts.IDOffset, err = strconv.Atoi(v); err != nil {
			return opts, false, fmt.Errorf("invalid idOffset")
		}
	}

	if v := q.Get("offDays"); v != "" {
		if offDays, err = strconv.ParseBool(v); err != nil {
			return opts, false, fmt.Errorf("invalid offDays")
		}
	}

	return opts, offDays, nil
}

// parseWeekdays: "0,6" -> [Sunday, Saturday].
func parseWeekdays(v string) ([]time.Weekday, error) {
	parts := strings.Split(v, ",")
	res := make([]time.Weekday, 0, len(parts))

	for _, p := range parts {
		wd, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || wd < int(time.Sunday) || wd > int(time.Saturday) {
			return nil, fmt.Errorf("invalid disabledDays item '%s'", p)
		}
		res = append(res, time.Weekday(wd))
	}
	return res, nil
}

func parseTimestamps(v string) ([]int64, error) {
	parts := strings.Split(v, ",")
	res := make([]int64, 0, len(parts))

	for _, p := range parts {
		t, err := time.Parse(dateLayout, strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid disabledDates item '%s'", p)
		}
		res = append(res, grid.Timestamp(t))
	}
	return res, nil
}
