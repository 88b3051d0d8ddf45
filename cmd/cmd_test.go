package cmd

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testPasswd = "pass"

// newApp собирает app на свободном порту с хранилищем в памяти и без внешних источников.
func newApp(t *testing.T, cmdMod func(*Server)) (cmd *Server, a *app, port int) {
	t.Helper()
	port = unusedPort(t)

	cmd = &Server{}
	cmd.SyncOnStart = []string{}
	cmd.Web.Listen = fmt.Sprintf("127.0.0.1:%d", port)
	cmd.Web.AdminPasswd = testPasswd
	cmd.Web.ReadTimeout = 5 * time.Second
	cmd.Web.ReadHeaderTimeout = 5 * time.Second
	cmd.Web.WriteTimeout = 5 * time.Second
	cmd.Web.IdleTimeout = 30 * time.Second
	cmd.Web.RateLimiter.ReqLimit = 100
	cmd.Web.RateLimiter.LimitWindow = 1 * time.Second
	cmd.Store.Engine = EngineMemory
	cmd.Source.Parser = ParserNone
	cmd.Grid.Locale = "en"
	if cmdMod != nil {
		cmdMod(cmd)
	}

	var err error
	a, err = cmd.makeApp()
	require.NoError(t, err)

	return cmd, a, port
}

// startApp запускает app и ждет, пока поднимется HTTP. Возвращает базовый URL.
// app останавливается по завершении теста.
func startApp(t *testing.T, cmdMod func(*Server)) (a *app, baseUrl string) {
	t.Helper()
	_, a, port := newApp(t, cmdMod)

	go func() {
		_ = a.run()
	}()
	t.Cleanup(a.shutdown)

	baseUrl = fmt.Sprintf("http://127.0.0.1:%d", port)
	waitForHTTP(t, baseUrl)
	return a, baseUrl
}

// waitSyncOnStart ждет, пока app синхронизирует годы из --sync-on-start.
func waitSyncOnStart(t *testing.T, a *app) {
	t.Helper()
	select {
	case <-a.syncYearsFinish:
	case <-time.After(5 * time.Second):
		t.Fatal("sync on start is not finished")
	}
}

func unusedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

func waitForHTTP(t *testing.T, baseUrl string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(baseUrl + "/ping")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond, "cannot connect to %s", baseUrl)
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}
