package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nvkalinin/month-grid/log"
)

// adminClient обращается к API запущенного сервера от имени пользователя admin.
type adminClient struct {
	serverUrl string
	passwd    string
	client    *http.Client
}

func newAdminClient(serverUrl, passwd string, timeout time.Duration) *adminClient {
	return &adminClient{
		serverUrl: serverUrl,
		passwd:    passwd,
		client:    &http.Client{Timeout: timeout},
	}
}

// do выполняет запрос. Если form не nil, она отправляется как x-www-form-urlencoded.
// Ответ со статусом не 200 закрывается и превращается в ошибку с текстом из {"msg": ...}.
func (c *adminClient) do(method, path string, form url.Values) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(method, makeUrl(c.serverUrl, path), body)
	if err != nil {
		return nil, fmt.Errorf("cannot make request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.SetBasicAuth("admin", c.passwd)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	log.Printf("[DEBUG] %s %s: status %d", method, req.URL, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		defer closeBody(resp)
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: status %d, cannot read body: %w", method, path, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, readJsonError(respBody))
	}
	return resp, nil
}

// doJson выполняет запрос и декодирует JSON-ответ в v.
func (c *adminClient) doJson(method, path string, form url.Values, v any) error {
	resp, err := c.do(method, path, form)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s %s: cannot parse response: %w", method, path, err)
	}
	return nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.Printf("[WARN] cannot close response: %v", err)
	}
}

func makeUrl(serverUrl string, path string) string {
	return strings.TrimRight(serverUrl, "/") + path
}

func readJsonError(body []byte) error {
	restErr := &struct {
		Msg string `json:"msg"`
	}{}
	if err := json.Unmarshal(body, restErr); err != nil {
		return fmt.Errorf("cannot read error msg: %w", err)
	}
	return errors.New(restErr.Msg)
}
