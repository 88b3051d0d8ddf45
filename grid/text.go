package grid

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const ltrMark = '\u200e'

// Трансформеры из x/text/runes не хранят состояние, один экземпляр можно использовать конкурентно.
var ltrRemover = runes.Remove(runes.Predicate(func(r rune) bool {
	return r == ltrMark
}))

// StripLTRMark убирает U+200E LEFT-TO-RIGHT MARK. Форматтеры могут вставлять его для bidi,
// но в label/value он попадать не должен. Остальные байты s не меняются, в том числе
// невалидный UTF-8.
func StripLTRMark(s string) string {
	if !strings.ContainsRune(s, ltrMark) {
		return s
	}
	// runes.Remove заменил бы невалидные байты на U+FFFD.
	if !utf8.ValidString(s) {
		return strings.ReplaceAll(s, string(ltrMark), "")
	}

	res, _, err := transform.String(ltrRemover, s)
	if err != nil {
		return s
	}
	return res
}

func format(f Formatter, d time.Time) string {
	return StripLTRMark(f(d))
}
