package rest

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nvkalinin/month-grid/store"
	"github.com/nvkalinin/month-grid/store/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

type updaterMock struct {
	mu    sync.Mutex
	years []int
}

func (u *updaterMock) UpdateCalendar(y int) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.years = append(u.years, y)
	if y == 1999 {
		return errors.New("no data")
	}
	return nil
}

func postSync(t *testing.T, srvUrl, passwd string, years ...string) (int, string) {
	t.Helper()
	body := strings.NewReader(url.Values{"y": years}.Encode())
	req, err := http.NewRequest(http.MethodPost, srvUrl+"/api/admin/sync", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if passwd != "" {
		req.SetBasicAuth("admin", passwd)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestServer_Sync(t *testing.T) {
	upd := &updaterMock{}
	srv := newTestServer(t, &Server{Updater: upd})

	status, body := postSync(t, srv.URL, "secret", "2022", "1999")
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"2022": "ok", "1999": "no data"}`, body)
	assert.Equal(t, []int{2022, 1999}, upd.years)

	status, _ = postSync(t, srv.URL, "secret", "abc")
	assert.Equal(t, 400, status)

	status, _ = postSync(t, srv.URL, "secret")
	assert.Equal(t, 400, status)
}

func TestServer_adminAuth(t *testing.T) {
	upd := &updaterMock{}
	srv := newTestServer(t, &Server{Updater: upd})

	status, _ := postSync(t, srv.URL, "", "2022")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = postSync(t, srv.URL, "wrong", "2022")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, upd.years)

	// Без пароля admin api выключено.
	opts := testOpts
	opts.AdminPasswd = ""
	srv = newTestServer(t, &Server{Updater: upd, Opts: opts})
	status, _ = postSync(t, srv.URL, "", "2022")
	assert.Equal(t, http.StatusForbidden, status)
}

func getBackup(t *testing.T, srvUrl string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srvUrl+"/api/admin/backup", http.NoBody)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "secret")

	// Отключаем прозрачную распаковку, чтобы получить gzip как есть.
	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestServer_Backup(t *testing.T) {
	dir := t.TempDir()
	bolt, err := engine.NewBolt(filepath.Join(dir, "cal.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	require.NoError(t, bolt.PutYear(2022, store.Months{
		1: {1: {WeekDay: store.Saturday, Type: store.Holiday}},
	}))

	srv := newTestServer(t, &Server{Store: bolt})
	resp, body := getBackup(t, srv.URL)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".bolt.gz")

	gz, err := gzip.NewReader(bytes.NewReader(body))
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	// Распакованный бекап открывается как обычная БД.
	restored := filepath.Join(dir, "restored.bolt")
	require.NoError(t, os.WriteFile(restored, raw, 0600))
	db, err := bbolt.Open(restored, 0600, nil)
	require.NoError(t, err)
	defer db.Close()

	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte("cal"))
		if b == nil {
			return fmt.Errorf("no bucket")
		}
		if b.Get([]byte("/2022/1")) == nil {
			return fmt.Errorf("no month")
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestServer_BackupNotSupported(t *testing.T) {
	srv := newTestServer(t, &Server{Store: engine.NewMemory()})

	resp, _ := getBackup(t, srv.URL)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}
