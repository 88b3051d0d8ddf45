package grid

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goodsign/monday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Formatters — набор форматтеров для сетки. Пустые поля заполняются в Calendar
// значениями из NewFormatters(Opts.Locale).
type Formatters struct {
	LongWeekday   Formatter
	NarrowWeekday Formatter
	Day           Formatter
	FullDate      Formatter
}

// Первая локаль используется, если запрошенную не удалось сопоставить.
var supportedLocales = []monday.Locale{
	monday.LocaleEnUS,
	monday.LocaleEnGB,
	monday.LocaleRuRU,
	monday.LocaleUkUA,
	monday.LocaleDeDE,
	monday.LocaleFrFR,
	monday.LocaleEsES,
	monday.LocaleItIT,
	monday.LocalePtBR,
	monday.LocalePtPT,
	monday.LocaleNlNL,
	monday.LocalePlPL,
	monday.LocaleFiFI,
	monday.LocaleSvSE,
	monday.LocaleDaDK,
	monday.LocaleNbNO,
	monday.LocaleTrTR,
	monday.LocaleJaJP,
	monday.LocaleZhCN,
	monday.LocaleKoKR,
}

var (
	supportedTags = localeTags(supportedLocales)
	localeMatcher = language.NewMatcher(supportedTags)
)

// Шаблоны полной даты (день недели, число, месяц, год) по базовому языку.
var fullDateLayouts = map[string]string{
	"en": "Mon, Jan 2, 2006",
	"de": "Mon, 2. Jan 2006",
	"ru": "Mon, 2 Jan 2006 г.",
	"uk": "Mon, 2 Jan 2006 р.",
	"ja": "2006年1月2日(Mon)",
	"zh": "2006年1月2日Mon",
	"ko": "2006년 1월 2일 (Mon)",
}

const defaultFullDateLayout = "Mon, 2 Jan 2006"

// Языки, в которых названия дней недели и месяцев пишутся со строчной буквы.
// monday для них отдает названия с заглавной.
var lowercaseNames = map[string]bool{
	"ru": true,
	"uk": true,
	"fr": true,
	"es": true,
	"it": true,
	"pt": true,
	"nl": true,
	"pl": true,
	"fi": true,
	"sv": true,
	"da": true,
	"nb": true,
	"tr": true,
}

// NewFormatters создает форматтеры для локали в формате BCP 47 ("en-US", "ru", "de-AT").
// Неизвестная или пустая локаль — en-US. Все даты форматируются в UTC.
func NewFormatters(locale string) Formatters {
	loc, tag := matchLocale(locale)
	base := baseLanguage(tag)

	localize := func(t time.Time, layout string) string {
		s := monday.Format(t.UTC(), layout, loc)
		if lowercaseNames[base] {
			return cases.Lower(tag).String(s)
		}
		return s
	}

	long := func(t time.Time) string {
		return localize(t, "Monday")
	}

	narrow := func(t time.Time) string {
		name := long(t)
		_, size := utf8.DecodeRuneInString(name)
		// cases.Caser хранит состояние, поэтому новый на каждый вызов.
		return cases.Upper(tag).String(name[:size])
	}

	layout, ok := fullDateLayouts[base]
	if !ok {
		layout = defaultFullDateLayout
	}

	return Formatters{
		LongWeekday:   long,
		NarrowWeekday: narrow,
		Day: func(t time.Time) string {
			return strconv.Itoa(t.UTC().Day())
		},
		FullDate: func(t time.Time) string {
			return localize(t, layout)
		},
	}
}

// orDefault заполняет пустые поля f форматтерами из def.
func (f Formatters) orDefault(def func() Formatters) Formatters {
	if f.LongWeekday != nil && f.NarrowWeekday != nil && f.Day != nil && f.FullDate != nil {
		return f
	}

	d := def()
	if f.LongWeekday == nil {
		f.LongWeekday = d.LongWeekday
	}
	if f.NarrowWeekday == nil {
		f.NarrowWeekday = d.NarrowWeekday
	}
	if f.Day == nil {
		f.Day = d.Day
	}
	if f.FullDate == nil {
		f.FullDate = d.FullDate
	}
	return f
}

func matchLocale(locale string) (monday.Locale, language.Tag) {
	tag, err := language.Parse(locale)
	if err != nil {
		return supportedLocales[0], supportedTags[0]
	}

	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return supportedLocales[0], supportedTags[0]
	}
	return supportedLocales[idx], supportedTags[idx]
}

func localeTags(locales []monday.Locale) []language.Tag {
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		// monday использует "en_US", BCP 47 — "en-US".
		tags[i] = language.Make(strings.ReplaceAll(string(l), "_", "-"))
	}
	return tags
}

func baseLanguage(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
