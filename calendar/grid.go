package calendar

import (
	"time"

	"github.com/nvkalinin/month-grid/grid"
	"github.com/nvkalinin/month-grid/log"
	"github.com/nvkalinin/month-grid/store"
)

type MonthStore interface {
	FindMonth(y int, mon time.Month) (store.Days, bool)
}

// GridBuilder строит сетку месяца и, по запросу, блокирует в ней нерабочие дни из Store.
type GridBuilder struct {
	Store MonthStore
}

// Build вызывает grid.Calendar. Если offDays, нерабочие дни месяца opts.SelectedDate
// добавляются к opts.DisabledDates; переданный срез не изменяется.
func (b *GridBuilder) Build(opts grid.Opts, offDays bool) grid.Result {
	if offDays && b.Store != nil {
		y, m, _ := opts.SelectedDate.UTC().Date()

		if days, ok := b.Store.FindMonth(y, m); ok {
			off := days.OffTimestamps(y, m)
			log.Printf("[DEBUG] calendar/grid %d-%02d: %d off days from store", y, m, len(off))
			opts.DisabledDates = union(opts.DisabledDates, off)
		} else {
			log.Printf("[DEBUG] calendar/grid %d-%02d: no data in store", y, m)
		}
	}

	return grid.Calendar(opts)
}

func union(a, b []int64) []int64 {
	res := make([]int64, 0, len(a)+len(b))
	seen := make(map[int64]bool, len(a)+len(b))

	for _, s := range [][]int64{a, b} {
		for _, ts := range s {
			if seen[ts] {
				continue
			}
			seen[ts] = true
			res = append(res, ts)
		}
	}
	return res
}
