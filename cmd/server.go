package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/nvkalinin/month-grid/calendar"
	"github.com/nvkalinin/month-grid/log"
	"github.com/nvkalinin/month-grid/rest"
	"github.com/nvkalinin/month-grid/source"
	"github.com/nvkalinin/month-grid/source/parser"
	"github.com/nvkalinin/month-grid/store"
	"github.com/nvkalinin/month-grid/store/engine"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"
)

type EngineType string

var (
	EngineMemory EngineType = "memory"
	EngineBolt   EngineType = "bolt"
	EngineSQLite EngineType = "sqlite"
)

type ParserType string

var (
	ParserNone ParserType = "none"
	ParserHTML ParserType = "html"
)

type Server struct {
	SyncAt      string   `long:"sync-at" env:"SYNC_AT" value-name:"hh:mm[:ss]" description:"В какое время синхронизировать нерабочие дни со всеми источниками. Обновление происходит один раз в сутки. Если не указано, то автоматическое обновление отключено."`
	SyncOnStart []string `long:"sync-on-start" env:"SYNC_ON_START" value-name:"year" default:"current" default:"next" description:"За какие годы синхронизировать календарь при запуске программы. Можно указывать числа, 'current' — текущий год, 'next' — следующий год. 'none' — отключить синхронизацию при запуске."`

	Web struct {
		Listen      string `long:"listen" env:"LISTEN" value-name:"addr" default:"0.0.0.0:80" description:"Сетевой адрес для веб-сервера."`
		AccessLog   bool   `long:"access-log" env:"ACCESS_LOG" description:"Логировать все HTTP-запросы."`
		AdminPasswd string `long:"admin-passwd" env:"ADMIN_PASSWD" description:"Пароль пользователя admin для вызова /api/admin/*. Если не задан, /api/admin/* выключены."`

		ReadTimeout       time.Duration `long:"read-timeout" env:"READ_TIMEOUT" value-name:"duration" default:"5s" description:"http.Server ReadTimeout"`
		ReadHeaderTimeout time.Duration `long:"read-header-timeout" env:"READ_HEADER_TIMEOUT" value-name:"duration" default:"5s" description:"http.Server ReadHeaderTimeout"`
		IdleTimeout       time.Duration `long:"idle-timeout" env:"IDLE_TIMEOUT" value-name:"duration" default:"30s" description:"http.Server IdleTimeout"`

		// Запросы к /admin могут выполняться долго, поэтому WriteTimout должен быть достаточно большим.
		WriteTimeout time.Duration `long:"write-timeout" env:"WRITE_TIMEOUT" value-name:"duration" default:"60s" description:"http.Server WriteTimeout"`

		RateLimiter struct {
			ReqLimit    int           `long:"reqs" env:"REQS" value-name:"num" default:"100" description:"Количество запросов с одного IP. Если 0 — rate limiter отключен."`
			LimitWindow time.Duration `long:"window" env:"WINDOW" value-name:"duration" default:"1s" description:"Интервал времени, за который разрешено указанное кол-во запросов."`
		} `group:"Rate Limiter" namespace:"ratelim" env-namespace:"RATE_LIM"`
	} `group:"Web" namespace:"web" env-namespace:"WEB"`

	Store struct {
		Engine EngineType `long:"engine" env:"ENGINE" value-name:"type" choice:"memory" choice:"bolt" choice:"sqlite" default:"bolt" description:"Тип хранилища для данных, собранных из источников."`

		Bolt struct {
			File string `long:"file" env:"FILE" value-name:"path" default:"cal.bolt" description:"Путь к файлу БД."`
		} `group:"Настройки хранилища bolt" namespace:"bolt" env-namespace:"BOLT"`

		SQLite struct {
			File string `long:"file" env:"FILE" value-name:"path" default:"cal.sqlite" description:"Путь к файлу БД."`
		} `group:"Настройки хранилища sqlite" namespace:"sqlite" env-namespace:"SQLITE"`
	} `group:"Хранилище" namespace:"store" env-namespace:"STORE"`

	Source struct {
		Parser ParserType `long:"parser" env:"PARSER" value-name:"type" choice:"html" choice:"none" default:"none" description:"Внешний источник праздников, который нужно парсить."`

		HTML struct {
			URL       string        `long:"url" env:"URL" value-name:"url" description:"Адрес страницы с таблицей праздников, {year} заменяется на год."`
			Selector  string        `long:"selector" env:"SELECTOR" value-name:"css" description:"CSS-селектор строк таблицы. По умолчанию: table.holidays tr"`
			Timeout   time.Duration `long:"timeout" env:"TIMEOUT" value-name:"duration" default:"30s" description:"Максимальное время выполнения запроса к сайту."`
			UserAgent string        `long:"user-agent" env:"USER_AGENT" description:"Значение заголовка User-Agent во всех запросах к сайту."`
		} `group:"Парсер HTML-таблицы" namespace:"html" env-namespace:"HTML"`

		ICal struct {
			Location string        `long:"location" env:"LOCATION" value-name:"path|url" description:"Файл .ics или URL календаря с праздниками. Если задан, используется после парсера."`
			Timeout  time.Duration `long:"timeout" env:"TIMEOUT" value-name:"duration" default:"30s" description:"Максимальное время загрузки календаря по URL."`
		} `group:"Календарь iCalendar" namespace:"ical" env-namespace:"ICAL"`

		Override string `long:"override" env:"OVERRIDE" value-name:"file.yml" description:"Путь к файлу с локальными изменениями календаря. Если задан, используется всегда, последним."`
	} `group:"Источник данных" namespace:"source" env-namespace:"SOURCE"`

	Grid GridFlags `group:"Сетка по умолчанию" namespace:"grid" env-namespace:"GRID"`
}

func (s *Server) Execute(args []string) error {
	a, err := s.makeApp()
	if err != nil {
		return err
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		a.shutdown()
	}()

	err = a.run()
	a.wait()
	return err
}

type Store interface {
	FindDay(y int, mon time.Month, d int) (*store.Day, bool)
	FindMonth(y int, mon time.Month) (store.Days, bool)
	FindYear(y int) (store.Months, bool)
	PutYear(y int, data store.Months) error
	Close() error
}

type app struct {
	srv             *rest.Server
	proc            *calendar.Processor
	store           Store
	autoSync        bool
	syncYears       []int
	syncYearsFinish chan struct{}

	stopOnce sync.Once
	stopped  chan struct{}
}

func (s *Server) makeApp() (*app, error) {
	a := &app{
		syncYearsFinish: make(chan struct{}),
		stopped:         make(chan struct{}),
	}

	st, err := s.makeStore()
	if err != nil {
		return nil, err
	}
	a.store = st

	if err := s.configure(a); err != nil {
		if cerr := st.Close(); cerr != nil {
			log.Printf("[WARN] cannot close store: %v", cerr)
		}
		return nil, err
	}

	return a, nil
}

func (s *Server) configure(a *app) error {
	src, err := s.makeSources()
	if err != nil {
		return err
	}

	var syncAt time.Time
	if s.SyncAt != "" {
		syncAt, err = parseSyncAt(s.SyncAt)
		if err != nil {
			return fmt.Errorf("sync at: %w", err)
		}
		a.autoSync = true
	}

	syncYears, err := parseYears(s.SyncOnStart)
	if err != nil {
		return fmt.Errorf("sync on start: %w", err)
	}
	a.syncYears = syncYears

	a.proc = calendar.NewProcessor(calendar.ProcOpts{
		Src:      src,
		Store:    a.store,
		UpdateAt: syncAt,
	})

	a.srv = &rest.Server{
		Store:   a.store,
		Updater: a.proc,
		Grid:    &calendar.GridBuilder{Store: a.store},
		Opts: rest.Opts{
			Listen:      s.Web.Listen,
			LogRequests: s.Web.AccessLog,
			AdminPasswd: s.Web.AdminPasswd,

			ReadTimeout:       s.Web.ReadTimeout,
			ReadHeaderTimeout: s.Web.ReadHeaderTimeout,
			WriteTimeout:      s.Web.WriteTimeout,
			IdleTimeout:       s.Web.IdleTimeout,

			RateLimiter: s.Web.RateLimiter.ReqLimit > 0,
			ReqLimit:    s.Web.RateLimiter.ReqLimit,
			LimitWindow: s.Web.RateLimiter.LimitWindow,

			GridDefaults: s.Grid.defaults(),
		},
	}

	return nil
}

func (s *Server) makeStore() (Store, error) {
	switch s.Store.Engine {
	case EngineMemory:
		return engine.NewMemory(), nil
	case EngineBolt:
		return engine.NewBolt(s.Store.Bolt.File)
	case EngineSQLite:
		return engine.NewSQLite(s.Store.SQLite.File)
	default:
		return nil, fmt.Errorf("unknown store engine %s", s.Store.Engine)
	}
}

func (s *Server) makeSources() ([]calendar.Source, error) {
	src := make([]calendar.Source, 0, 4)
	src = append(src, source.NewGeneric())

	switch s.Source.Parser {
	case ParserNone:
	case ParserHTML:
		if s.Source.HTML.URL == "" {
			return nil, fmt.Errorf("html parser: url is required")
		}

		ua := s.Source.HTML.UserAgent
		if ua == "" {
			ua = "Go-http-client"
		}

		jar, err := cookiejar.New(&cookiejar.Options{
			PublicSuffixList: publicsuffix.List,
		})
		if err != nil {
			return nil, fmt.Errorf("cannot create cookie jar: %w", err)
		}

		src = append(src, &parser.HTMLTable{
			Client: &http.Client{
				Timeout: s.Source.HTML.Timeout,
				Jar:     jar,
			},
			UserAgent: ua,
			URL:       s.Source.HTML.URL,
			Selector:  s.Source.HTML.Selector,
		})
	default:
		return nil, fmt.Errorf("unknown parser %s", s.Source.Parser)
	}

	if s.Source.ICal.Location != "" {
		src = append(src, &source.ICal{
			Location: s.Source.ICal.Location,
			Client:   &http.Client{Timeout: s.Source.ICal.Timeout},
		})
	}

	if s.Source.Override != "" {
		src = append(src, &source.Override{
			Path: s.Source.Override,
		})
	}

	return src, nil
}

func parseSyncAt(val string) (time.Time, error) {
	if t, err := time.Parse("15:04", val); err == nil {
		return t, nil
	}

	t, err := time.Parse("15:04:05", val)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time '%s', it must match pattern hh:mm[:ss]", val)
	}
	return t, nil
}

func parseYears(vals []string) ([]int, error) {
	if len(vals) == 1 && vals[0] == "none" {
		return nil, nil
	}

	years := make(map[int]bool, len(vals))
	for _, val := range vals {
		switch val {
		case "current":
			y := time.Now().Year()
			years[y] = true
		case "next":
			y := time.Now().Year() + 1
			years[y] = true
		default:
			y, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("invalid year '%s': %w", val, err)
			}
			if y <= 0 {
				return nil, fmt.Errorf("invalid year %d", y)
			}
			years[y] = true
		}
	}

	ylist := make([]int, 0, len(years))
	for y := range years {
		ylist = append(ylist, y)
	}

	return ylist, nil
}

// run блокируется, пока все части приложения не завершатся. Если одна из них упала,
// останавливает остальные и возвращает ее ошибку.
func (a *app) run() error {
	g, ctx := errgroup.WithContext(context.Background())

	// RunUpdates сам не завершится, поэтому при ошибке любой части нужен shutdown.
	go func() {
		<-ctx.Done()
		a.shutdown()
	}()

	if a.autoSync {
		g.Go(func() error {
			a.proc.RunUpdates()
			return nil
		})
	}

	g.Go(func() error {
		syncOnRun(a.proc, a.syncYears, a.syncYearsFinish)
		return nil
	})

	g.Go(func() error {
		if err := a.srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] startup: %v", err)
			return fmt.Errorf("startup: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *app) shutdown() {
	a.stopOnce.Do(func() {
		log.Printf("[INFO] shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		g, _ := errgroup.WithContext(ctx)

		g.Go(func() error {
			return a.proc.Shutdown(ctx)
		})
		g.Go(func() error {
			return a.srv.Shutdown(ctx)
		})
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return fmt.Errorf("sync on run: %w", ctx.Err())
			case <-a.syncYearsFinish:
				return nil
			}
		})

		if err := g.Wait(); err != nil {
			log.Printf("[ERROR] app shutdown: %v", err)
		}

		// Закрываем хранилище, только когда никто в него уже не пишет.
		if err := a.store.Close(); err != nil {
			log.Printf("[ERROR] app shutdown: %v", err)
		}

		close(a.stopped)
	})
}

func (a *app) wait() {
	<-a.stopped
}

func syncOnRun(proc *calendar.Processor, years []int, finished chan<- struct{}) {
	defer close(finished)
	for _, y := range years {
		if err := proc.UpdateCalendar(y); err != nil {
			log.Printf("[WARN] sync on run, year %d: %+v", y, err)
		}
	}
}
