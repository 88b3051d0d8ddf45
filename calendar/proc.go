// Package calendar собирает нерабочие дни из источников, сохраняет их и подставляет
// в сетку месяца как недоступные даты.
package calendar

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nvkalinin/month-grid/log"
	"github.com/nvkalinin/month-grid/store"
)

type Source interface {
	// GetYear может вернуть не все месяцы года.
	GetYear(y int) (store.Months, error)
}

type Store interface {
	PutYear(y int, data store.Months) error
}

type ProcOpts struct {
	Src      []Source  // Упорядоченный список источников.
	Store    Store     // Куда сохранять итоговый календарь (не нужен, если вызывается только MakeCalendar).
	UpdateAt time.Time // Используется только время, дата игнорируется.
}

type Processor struct {
	ProcOpts
	stopCh   chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	done     chan struct{}
}

func NewProcessor(opts ProcOpts) *Processor {
	return &Processor{
		ProcOpts: opts,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// RunUpdates раз в сутки (в UpdateAt) обновляет календари за текущий и следующий год.
// Блокируется до Shutdown.
func (p *Processor) RunUpdates() {
	p.running.Store(true)
	defer close(p.done)

	t := time.NewTimer(p.untilNextRun())
	defer t.Stop()

	for {
		select {
		case <-t.C:
			p.UpdateCurrentYears()
			t.Reset(p.untilNextRun())

		case <-p.stopCh:
			return
		}
	}
}

// Shutdown останавливает RunUpdates и ждет его завершения. Если RunUpdates не запускался,
// сразу возвращает nil.
func (p *Processor) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if !p.running.Load() {
		return nil
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		log.Printf("[WARN] calendar/proc shutdown timeout")
		return ctx.Err()
	}
}

func (p *Processor) untilNextRun() time.Duration {
	now := time.Now()

	nextRun := time.Date(
		now.Year(), now.Month(), now.Day(),
		p.UpdateAt.Hour(), p.UpdateAt.Minute(), p.UpdateAt.Second(), p.UpdateAt.Nanosecond(),
		time.Local,
	)

	d := time.Until(nextRun)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d
}

func (p *Processor) UpdateCurrentYears() {
	y := time.Now().Year()

	for _, year := range []int{y, y + 1} {
		if err := p.UpdateCalendar(year); err != nil {
			log.Printf("[WARN] calendar/proc cannot update %d: %+v", year, err)
		}
	}
}

func (p *Processor) UpdateCalendar(y int) error {
	cal := p.MakeCalendar(y)
	if len(cal) == 0 {
		log.Printf("[WARN] calendar/proc no data for %d, nothing to store", y)
		return nil
	}

	if err := p.Store.PutYear(y, cal); err != nil {
		return fmt.Errorf("calendar/proc cannot store year %d: %w", y, err)
	}
	log.Printf("[INFO] calendar/proc year %d updated", y)
	return nil
}

// MakeCalendar собирает календарь на год из источников Src.
// Если два источника возвращают данные на одну дату, поля из последнего заменяют поля из первого.
// Источник, вернувший ошибку, пропускается. Если ни один источник ничего не вернул,
// результат пустой (len=0).
func (p *Processor) MakeCalendar(y int) store.Months {
	cal := make(store.Months, 12)

	for i, src := range p.Src {
		months, err := src.GetYear(y)
		if err != nil {
			log.Printf("[WARN] calendar/proc skipping source %d (%T), error: %+v", i, src, err)
			continue
		}

		cal = merge(cal, months)
	}

	return cal
}

func merge(m1 store.Months, m2 store.Months) store.Months {
	res := m1.Copy()
	for mon, days := range m2 {
		if _, monExists := res[mon]; !monExists {
			res[mon] = make(store.Days, len(days))
		}

		for dayNum, day := range days {
			merged := res[mon][dayNum]
			merged.Working = day.Working

			if day.WeekDay != "" {
				merged.WeekDay = day.WeekDay
			}
			if day.Type != "" {
				merged.Type = day.Type
			}
			if day.Desc != "" {
				merged.Desc = day.Desc
			}

			res[mon][dayNum] = merged
		}
	}
	return res
}
