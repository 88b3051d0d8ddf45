package cmd

import (
	"compress/gzip"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvkalinin/month-grid/log"
)

// Backup скачивает копию БД bolt. Сервер с другим хранилищем отвечает 501.
type Backup struct {
	ServerUrl   string        `long:"server-url" short:"s" env:"SERVER_URL" default:"http://localhost" description:"URL сервера month-grid."`
	AdminPasswd string        `long:"passwd" short:"p" env:"WEB_ADMIN_PASSWD" description:"Пароль пользователя admin."`
	OutFile     string        `long:"out" short:"o" env:"OUT" description:"Путь к файлу, куда сохранить бекап. По умолчанию имя, которое предлагает сервер, в каталоге --dir."`
	Dir         string        `long:"dir" env:"DIR" default:"." description:"Каталог для бекапа, если не задан --out."`
	Unpack      bool          `long:"unpack" env:"UNPACK" description:"Сохранить распакованный файл БД (без .gz), его можно сразу указать в --store.bolt.file."`
	Timeout     time.Duration `long:"timeout" short:"t" env:"TIMEOUT" default:"600s" description:"Макс. время выполнения запроса."`
}

func (b *Backup) Execute(args []string) error {
	c := newAdminClient(b.ServerUrl, b.AdminPasswd, b.Timeout)
	resp, err := c.do(http.MethodGet, "/api/admin/backup", nil)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	defer closeBody(resp)

	var r io.Reader = resp.Body
	if b.Unpack {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("backup: response is not gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	fname := b.filename(resp.Header.Get("Content-Disposition"))
	n, err := writeFileAtomic(fname, r)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	log.Printf("[INFO] backup saved to %s (%d bytes)", fname, n)
	return nil
}

// filename берет имя из Content-Disposition (rest отдает cal_YYYY-MM-DD.bolt.gz).
// Имя от сервера сводится к базовому, чтобы файл не попал за пределы Dir.
func (b *Backup) filename(disposition string) string {
	if b.OutFile != "" {
		return b.OutFile
	}

	name := fmt.Sprintf("cal_%s.bolt.gz", time.Now().Format("2006-01-02"))
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if fn := filepath.Base(params["filename"]); fn != "." && fn != "/" && fn != "" {
			name = fn
		}
	}

	if b.Unpack {
		name = strings.TrimSuffix(name, ".gz")
	}
	return filepath.Join(b.Dir, name)
}

// writeFileAtomic пишет r во временный файл рядом с path и переименовывает его:
// оборванная загрузка не оставляет полуфайл.
func writeFileAtomic(path string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("cannot create temp file for %s: %w", path, err)
	}
	defer func() {
		// После успешного Rename файла уже нет.
		_ = os.Remove(tmp.Name())
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return n, fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("cannot close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("cannot rename %s to %s: %w", tmp.Name(), path, err)
	}
	return n, nil
}
