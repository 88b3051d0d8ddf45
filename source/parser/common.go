package parser

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const dateLayout = "2006-01-02"

// cleanText нормализует текст ячейки: NFC, схлопывает пробелы (включая неразрывные).
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, cleanText(s))
}
