// Package rest отдает по HTTP сохраненные нерабочие дни и сетку месяца.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/nvkalinin/month-grid/grid"
	"github.com/nvkalinin/month-grid/log"
	"github.com/nvkalinin/month-grid/store"
)

type Store interface {
	FindDay(y int, mon time.Month, d int) (*store.Day, bool)
	FindMonth(y int, mon time.Month) (store.Days, bool)
	FindYear(y int) (store.Months, bool)
}

type Updater interface {
	UpdateCalendar(y int) error
}

type GridBuilder interface {
	Build(opts grid.Opts, offDays bool) grid.Result
}

type Server struct {
	Store   Store
	Updater Updater
	Grid    GridBuilder
	Opts    Opts

	mu      sync.Mutex
	httpSrv *http.Server
}

type Opts struct {
	Listen      string
	LogRequests bool
	AdminPasswd string // Если пусто, /api/admin/* недоступны.

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	RateLimiter bool
	ReqLimit    int
	LimitWindow time.Duration

	// Значения для /api/grid, если в запросе параметр не указан.
	GridDefaults GridDefaults
}

type GridDefaults struct {
	Locale         string
	FirstDayOfWeek int
	ShowWeekNumber bool
	WeekNumberType grid.WeekNumberType
}

// Run блокируется, пока сервер не будет остановлен через Shutdown.
// После Shutdown возвращает http.ErrServerClosed.
func (s *Server) Run() error {
	s.mu.Lock()
	s.httpSrv = &http.Server{
		Addr:              s.Opts.Listen,
		Handler:           s.routes(),
		ReadTimeout:       s.Opts.ReadTimeout,
		ReadHeaderTimeout: s.Opts.ReadHeaderTimeout,
		WriteTimeout:      s.Opts.WriteTimeout,
		IdleTimeout:       s.Opts.IdleTimeout,
		ErrorLog:          log.Std("[WARN] rest: "),
	}
	srv := s.httpSrv
	s.mu.Unlock()

	log.Printf("[INFO] rest listening on %s", s.Opts.Listen)
	return srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("rest cannot shutdown: %w", err)
	}
	log.Printf("[DEBUG] rest stopped")
	return nil
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	if s.Opts.LogRequests {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  log.Std("[INFO] "),
			NoColor: true,
		}))
	}
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api", func(r chi.Router) {
		if s.Opts.RateLimiter {
			r.Use(httprate.LimitByIP(s.Opts.ReqLimit, s.Opts.LimitWindow))
		}

		r.Get("/cal/{y}", s.yearCtrl)
		r.Get("/cal/{y}/{m}", s.monthCtrl)
		r.Get("/cal/{y}/{m}/{d}", s.dayCtrl)

		r.Get("/grid/{y}/{m}", s.gridCtrl)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Post("/sync", s.syncCtrl)
			r.Get("/backup", s.backupCtrl)
		})
	})

	return r
}

func (s *Server) yearCtrl(w http.ResponseWriter, r *http.Request) {
	y, err := yearParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid year")
		return
	}

	year, found := s.Store.FindYear(y)
	if !found {
		sendErrorJson(w, http.StatusNotFound, "year not found")
		return
	}

	sendJsonResponse(w, year)
}

func (s *Server) monthCtrl(w http.ResponseWriter, r *http.Request) {
	y, err1 := yearParam(r)
	m, err2 := monthParam(r)
	if err := errors.Join(err1, err2); err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid date")
		return
	}

	month, found := s.Store.FindMonth(y, m)
	if !found {
		sendErrorJson(w, http.StatusNotFound, "month not found")
		return
	}

	sendJsonResponse(w, month)
}

func (s *Server) dayCtrl(w http.ResponseWriter, r *http.Request) {
	y, err1 := yearParam(r)
	m, err2 := monthParam(r)
	d, err3 := dayParam(r)
	if err := errors.Join(err1, err2, err3); err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid date")
		return
	}

	day, found := s.Store.FindDay(y, m, d)
	if !found {
		sendErrorJson(w, http.StatusNotFound, "date not found")
		return
	}

	sendJsonResponse(w, day)
}

func intParam(r *http.Request, param string) (int, error) {
	strVal := chi.URLParam(r, param)
	return strconv.Atoi(strVal)
}

func yearParam(r *http.Request) (int, error) {
	y, err := intParam(r, "y")
	if err != nil {
		return 0, err
	}

	if y <= 0 {
		return 0, fmt.Errorf("invalid year")
	}
	return y, nil
}

func monthParam(r *http.Request) (time.Month, error) {
	m, err := intParam(r, "m")
	if err != nil {
		return 0, err
	}

	if m < int(time.January) || m > int(time.December) {
		return 0, fmt.Errorf("invalid month number")
	}
	return time.Month(m), nil
}

func dayParam(r *http.Request) (int, error) {
	d, err := intParam(r, "d")
	if err != nil {
		return 0, err
	}

	if d < 1 || d > 31 {
		return 0, fmt.Errorf("invalid day number")
	}
	return d, nil
}

func sendJsonResponse(w http.ResponseWriter, data any) {
	respJson, err := json.Marshal(data)
	if err != nil {
		log.Printf("[WARN] rest cannot marshal response data: %+v", err)
		sendErrorJson(w, http.StatusInternalServerError, "cannot marshal response data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err = w.Write(respJson); err != nil {
		log.Printf("[WARN] rest cannot write response data: %+v", err)
	}
}

func sendErrorJson(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	restErr := &struct {
		Msg string `json:"msg"`
	}{msg}

	errJson, err := json.Marshal(restErr)
	if err != nil {
		log.Printf("[WARN] rest cannot marshal error: %+v", err)
		return
	}

	if _, err = w.Write(errJson); err != nil {
		log.Printf("[WARN] rest cannot write error: %+v", err)
	}
}
