package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/nvkalinin/month-grid/log"
	"github.com/nvkalinin/month-grid/store"
)

// Sync просит сервер заново собрать календарь за годы Years и показывает,
// сколько нерабочих дней в итоге сохранено.
type Sync struct {
	ServerUrl   string        `long:"server-url" short:"s" env:"SERVER_URL" value-name:"str" default:"http://localhost" description:"URL сервера month-grid."`
	AdminPasswd string        `long:"passwd" short:"p" env:"WEB_ADMIN_PASSWD" value-name:"str" description:"Пароль пользователя admin."`
	Timeout     time.Duration `long:"timeout" short:"t" env:"TIMEOUT" value-name:"duration" default:"60s" description:"Макс. время выполнения одного запроса."`
	Years       []int         `long:"year" short:"y" env:"YEAR" value-name:"int" required:"true" description:"Год, за который нужно синхронизировать календарь. Можно указывать несколько раз."`
}

// SyncResult — итог по одному году.
type SyncResult struct {
	Year    int
	Err     string // Пусто, если синхронизация прошла.
	OffDays int    // Нерабочих дней в хранилище после синхронизации.
}

func (s *Sync) Execute(args []string) error {
	res, err := s.sync(newAdminClient(s.ServerUrl, s.AdminPasswd, s.Timeout))
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range res {
		if r.Err != "" {
			failed++
			log.Printf("[ERROR] year %d: %s", r.Year, r.Err)
			continue
		}
		log.Printf("[INFO] year %d: ok, %d off days", r.Year, r.OffDays)
	}

	if failed > 0 {
		return fmt.Errorf("sync failed for %d of %d years", failed, len(res))
	}
	return nil
}

func (s *Sync) sync(c *adminClient) ([]SyncResult, error) {
	ystr := make([]string, len(s.Years))
	for i, y := range s.Years {
		ystr[i] = strconv.Itoa(y)
	}

	status := map[int]string{}
	if err := c.doJson(http.MethodPost, "/api/admin/sync", url.Values{"y": ystr}, &status); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	res := make([]SyncResult, 0, len(status))
	for y, st := range status {
		r := SyncResult{Year: y}
		if st != "ok" {
			r.Err = st
			res = append(res, r)
			continue
		}

		months := store.Months{}
		if err := c.doJson(http.MethodGet, fmt.Sprintf("/api/cal/%d", y), nil, &months); err != nil {
			r.Err = fmt.Sprintf("synced, but cannot read stored year: %v", err)
		} else {
			r.OffDays = countOffDays(months)
		}
		res = append(res, r)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].Year < res[j].Year })
	return res, nil
}

func countOffDays(months store.Months) int {
	n := 0
	for _, days := range months {
		for _, d := range days {
			if d.Off() {
				n++
			}
		}
	}
	return n
}
