package rest

import (
	"compress/gzip"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nvkalinin/month-grid/log"
)

type Backuper interface {
	Backup(w io.Writer) error
}

const adminUser = "admin"

func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Opts.AdminPasswd == "" {
			sendErrorJson(w, http.StatusForbidden, "admin api disabled")
			return
		}

		user, passwd, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(adminUser)) != 1 ||
			subtle.ConstantTimeCompare([]byte(passwd), []byte(s.Opts.AdminPasswd)) != 1 {

			w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
			sendErrorJson(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// syncCtrl синхронизирует годы из параметров y. В ответе для каждого года "ok" или текст ошибки.
func (s *Server) syncCtrl(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid form")
		return
	}

	yvals := r.Form["y"]
	if len(yvals) == 0 {
		sendErrorJson(w, http.StatusBadRequest, "no years")
		return
	}

	years := make([]int, 0, len(yvals))
	for _, v := range yvals {
		y, err := strconv.Atoi(v)
		if err != nil || y <= 0 {
			sendErrorJson(w, http.StatusBadRequest, fmt.Sprintf("invalid year '%s'", v))
			return
		}
		years = append(years, y)
	}

	res := make(map[int]string, len(years))
	for _, y := range years {
		if err := s.Updater.UpdateCalendar(y); err != nil {
			log.Printf("[WARN] rest sync %d: %+v", y, err)
			res[y] = err.Error()
			continue
		}
		res[y] = "ok"
	}

	sendJsonResponse(w, res)
}

func (s *Server) backupCtrl(w http.ResponseWriter, r *http.Request) {
	b, ok := s.Store.(Backuper)
	if !ok {
		sendErrorJson(w, http.StatusNotImplemented, "backup is not supported by store engine")
		return
	}

	fname := fmt.Sprintf("cal_%s.bolt.gz", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fname))

	gz := gzip.NewWriter(w)
	if err := b.Backup(gz); err != nil {
		// Заголовки уже отправлены, остается только оборвать ответ.
		log.Printf("[ERROR] rest backup: %+v", err)
		panic(http.ErrAbortHandler)
	}
	if err := gz.Close(); err != nil {
		log.Printf("[ERROR] rest backup, cannot close gzip: %+v", err)
	}
}
