package cmd

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/nvkalinin/month-grid/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerCmd(t *testing.T) {
	_, url := startApp(t, nil)

	status, _ := getBody(t, url+"/ping")
	assert.Equal(t, 200, status)

	status, _ = getBody(t, url+"/api/cal/2022")
	assert.Equal(t, 404, status)
}

func TestServerCmd_syncOnStart(t *testing.T) {
	a, url := startApp(t, func(cmd *Server) {
		cmd.SyncOnStart = []string{"2021", "current", "next"}
		cmd.Source.Override = "testdata/override.yml"
	})
	waitSyncOnStart(t, a)

	// Из generic-календаря.
	status, json := getBody(t, url+"/api/cal/2021/01/01")
	expJson := `{
		"weekDay": "fri",
		"working": true,
		"type": "normal"
	}`
	assert.Equal(t, 200, status)
	assert.JSONEq(t, expJson, json)

	// Из override.yml.
	status, json = getBody(t, url+"/api/cal/2021/01/02")
	expJson = `{
		"weekDay": "sat",
		"working": true,
		"type": "normal",
		"desc": "работаем"
	}`
	assert.Equal(t, 200, status)
	assert.JSONEq(t, expJson, json)

	y := time.Now().Year()

	status, _ = getBody(t, fmt.Sprintf(url+"/api/cal/%d/01/01", y))
	assert.Equal(t, 200, status)

	status, _ = getBody(t, fmt.Sprintf(url+"/api/cal/%d/01/01", y+1))
	assert.Equal(t, 200, status)
}

func TestServerCmd_autoSync(t *testing.T) {
	_, url := startApp(t, func(cmd *Server) {
		cmd.SyncAt = time.Now().Add(1 * time.Second).Format("15:04:05")
	})

	y := time.Now().Year()
	assert.Eventually(t, func() bool {
		status, _ := getBody(t, fmt.Sprintf(url+"/api/cal/%d/01/01", y))
		return status == 200
	}, 5*time.Second, 100*time.Millisecond)
}

func TestServerCmd_signalsAndShutdown(t *testing.T) {
	cmd, _, port := newApp(t, nil)
	url := fmt.Sprintf("http://127.0.0.1:%d", port)

	go func() {
		err := cmd.Execute([]string{})
		assert.NoError(t, err)
	}()
	waitForHTTP(t, url)

	status, _ := getBody(t, url+"/ping")
	assert.Equal(t, 200, status)

	err := syscall.Kill(syscall.Getpid(), syscall.SIGINT)
	require.NoError(t, err)
	time.Sleep(500 * time.Millisecond) // Должно хватить на звершение.

	cl := &http.Client{
		Timeout: 100 * time.Millisecond,
	}
	_, err = cl.Get(url+"/ping")
	require.Error(t, err)
}

func TestServerCmd_fail(t *testing.T) {
	cmd := &Server{}
	_, _ = flags.ParseArgs(cmd, []string{
		"--store.engine=foo",
	})
	_, err := cmd.makeApp()
	assert.ErrorContains(t, err, "unknown store engine")

	cmd = &Server{}
	_, _ = flags.ParseArgs(cmd, []string{
		"--store.engine=memory",
		"--source.parser=foo",
	})
	_, err = cmd.makeApp()
	assert.ErrorContains(t, err, "unknown parser")

	cmd = &Server{}
	_, _ = flags.ParseArgs(cmd, []string{
		"--store.engine=memory",
		"--source.parser=none",
		"--sync-at=foo",
	})
	_, err = cmd.makeApp()
	assert.ErrorContains(t, err, "sync at")

	cmd = &Server{}
	_, _ = flags.ParseArgs(cmd, []string{
		"--store.engine=memory",
		"--source.parser=none",
		"--sync-at=05:00",
		"--sync-on-start=foo",
	})
	_, err = cmd.makeApp()
	assert.ErrorContains(t, err, "sync on start")

	cmd = &Server{}
	_, _ = flags.ParseArgs(cmd, []string{
		"--store.engine=memory",
		"--source.parser=none",
		"--sync-at=05:00",
		"--sync-on-start=2020", "--sync-on-start=current",
	})
	a, err := cmd.makeApp()
	assert.NoError(t, err)
	if a != nil {
		assert.NoError(t, a.store.Close())
	}

	cmd = &Server{}
	_, _ = flags.ParseArgs(cmd, []string{
		"--store.engine=memory",
		"--source.parser=html",
	})
	_, err = cmd.makeApp()
	assert.ErrorContains(t, err, "url is required")
}

func TestServerCmd_grid(t *testing.T) {
	a, url := startApp(t, func(cmd *Server) {
		cmd.SyncOnStart = []string{"2021"}
		cmd.Source.Override = "testdata/override.yml"
		cmd.Source.ICal.Location = "testdata/holidays.ics"
		cmd.Grid.FirstDay = 1
		cmd.Grid.WeekNumbers = true
		cmd.Grid.WeekType = "first-4-day-week"
	})
	waitSyncOnStart(t, a)

	status, body := getBody(t, url+"/api/grid/2021/1?offDays=true")
	require.Equal(t, 200, status)

	res := struct {
		Weekdays []struct {
			Label string `json:"label"`
		} `json:"weekdays"`
		DaysInMonth struct {
			DisabledDates []int64 `json:"disabledDates"`
		} `json:"daysInMonth"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(body), &res))

	require.Len(t, res.Weekdays, 8)
	assert.Equal(t, "Monday", res.Weekdays[1].Label)

	dd := res.DaysInMonth.DisabledDates
	jan := func(d int) int64 {
		return grid.Timestamp(time.Date(2021, time.January, d, 0, 0, 0, 0, time.UTC))
	}
	assert.Contains(t, dd, jan(1))    // holidays.ics
	assert.NotContains(t, dd, jan(2)) // суббота, но override.yml делает ее рабочей
	assert.Contains(t, dd, jan(3))    // воскресенье
	assert.NotContains(t, dd, jan(4))
}

func TestServerCmd_sqlite(t *testing.T) {
	dir := t.TempDir()
	a, url := startApp(t, func(cmd *Server) {
		cmd.SyncOnStart = []string{"2021"}
		cmd.Store.Engine = "sqlite"
		cmd.Store.SQLite.File = filepath.Join(dir, "cal.sqlite")
	})
	waitSyncOnStart(t, a)

	status, body := getBody(t, url+"/api/cal/2021/01/01")
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"weekDay": "fri", "working": true, "type": "normal"}`, body)

	// sqlite не умеет делать бекап.
	req, err := http.NewRequest(http.MethodGet, url+"/api/admin/backup", http.NoBody)
	require.NoError(t, err)
	req.SetBasicAuth("admin", testPasswd)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestServerCmd_listenFailure(t *testing.T) {
	// Порт занят: run должен вернуть ошибку и остановить RunUpdates, а не зависнуть.
	cmd, a, _ := newApp(t, func(cmd *Server) {
		cmd.SyncAt = "03:00"
		cmd.SyncOnStart = []string{"2021"}
	})

	l, err := net.Listen("tcp", cmd.Web.Listen)
	require.NoError(t, err)
	defer l.Close()

	done := make(chan error, 1)
	go func() {
		done <- a.run()
	}()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "startup")
	case <-time.After(5 * time.Second):
		t.Fatal("run is blocked after listen failure")
	}

	// shutdown уже выполнен, wait не блокируется.
	a.wait()
}
