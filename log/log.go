// Package log — обертка над стандартным логгером. Уровень задается префиксом сообщения:
// [DEBUG], [INFO], [WARN], [ERROR]. Сообщения [DEBUG] пишутся только при AllowDebug.
package log

import (
	"io"
	"log"
	"os"
	"strings"
)

var AllowDebug = false

var std = log.New(os.Stderr, "", log.LstdFlags)

func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func Printf(format string, v ...any) {
	if !allowed(format) {
		return
	}
	std.Printf(format, v...)
}

func Fatalf(format string, v ...any) {
	if !allowed(format) {
		return
	}
	std.Fatalf(format, v...)
}

// Std возвращает *log.Logger для библиотек, которым нужен стандартный логгер
// (http.Server.ErrorLog, chi middleware). Фильтр [DEBUG] к нему тоже применяется.
func Std(prefix string) *log.Logger {
	return log.New(writer{prefix: prefix}, "", 0)
}

type writer struct {
	prefix string
}

func (w writer) Write(p []byte) (int, error) {
	msg := w.prefix + strings.TrimRight(string(p), "\n")
	if allowed(msg) {
		// Print, не Printf: % в сообщении не интерпретируется.
		std.Print(msg)
	}
	return len(p), nil
}

func allowed(s string) bool {
	if AllowDebug {
		return true
	}
	return !strings.HasPrefix(s, "[DEBUG]")
}
