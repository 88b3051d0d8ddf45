package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nvkalinin/month-grid/calendar"
	"github.com/nvkalinin/month-grid/grid"
	"github.com/nvkalinin/month-grid/log"
	"github.com/nvkalinin/month-grid/source"
	"github.com/nvkalinin/month-grid/store/engine"
)

// Render строит сетку месяца без сервера.
type Render struct {
	Year         int    `long:"year" short:"y" env:"YEAR" value-name:"int" required:"true" description:"Год."`
	Month        int    `long:"month" short:"m" env:"MONTH" value-name:"1-12" required:"true" description:"Месяц."`
	Format       string `long:"format" short:"f" env:"FORMAT" value-name:"fmt" choice:"table" choice:"json" default:"table" description:"Формат вывода."`
	DisabledDays []int  `long:"disabled-day" value-name:"0-6" description:"День недели, который нельзя выбрать (0 — воскресенье). Можно указывать несколько раз."`
	Min          string `long:"min" value-name:"YYYY-MM-DD" description:"Даты раньше нельзя выбрать."`
	Max          string `long:"max" value-name:"YYYY-MM-DD" description:"Даты позже нельзя выбрать."`

	Override string `long:"override" value-name:"file.yml" description:"Файл с локальными изменениями календаря. Нерабочие дни из него нельзя выбрать."`
	ICal     string `long:"ical" value-name:"file.ics" description:"Файл iCalendar с праздниками. Нерабочие дни из него нельзя выбрать."`

	Grid GridFlags `group:"Сетка" namespace:"grid" env-namespace:"GRID"`

	out io.Writer
}

func (r *Render) Execute(args []string) error {
	opts, err := r.gridOpts()
	if err != nil {
		return err
	}

	b := &calendar.GridBuilder{}
	offDays := r.Override != "" || r.ICal != ""
	if offDays {
		mem := engine.NewMemory()
		defer mem.Close()

		if err := r.loadOffDays(mem); err != nil {
			return err
		}
		b.Store = mem
	}

	res := b.Build(opts, offDays)

	out := r.out
	if out == nil {
		out = os.Stdout
	}

	switch r.Format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return writeTable(out, opts.SelectedDate, res)
	}
}

func (r *Render) gridOpts() (grid.Opts, error) {
	if r.Year <= 0 {
		return grid.Opts{}, fmt.Errorf("invalid year %d", r.Year)
	}
	if r.Month < int(time.January) || r.Month > int(time.December) {
		return grid.Opts{}, fmt.Errorf("invalid month %d", r.Month)
	}

	opts := grid.Opts{
		FirstDayOfWeek: r.Grid.FirstDay,
		ShowWeekNumber: r.Grid.WeekNumbers,
		WeekNumberType: grid.WeekNumberType(r.Grid.WeekType),
		Locale:         r.Grid.Locale,
		SelectedDate:   time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC),
	}

	for _, wd := range r.DisabledDays {
		if wd < int(time.Sunday) || wd > int(time.Saturday) {
			return grid.Opts{}, fmt.Errorf("invalid disabled day %d", wd)
		}
		opts.DisabledDays = append(opts.DisabledDays, time.Weekday(wd))
	}

	var err error
	if r.Min != "" {
		if opts.Min, err = time.Parse("2006-01-02", r.Min); err != nil {
			return grid.Opts{}, fmt.Errorf("invalid min: %w", err)
		}
	}
	if r.Max != "" {
		if opts.Max, err = time.Parse("2006-01-02", r.Max); err != nil {
			return grid.Opts{}, fmt.Errorf("invalid max: %w", err)
		}
	}

	return opts, nil
}

// loadOffDays собирает год из generic-календаря и файлов и кладет его в st.
func (r *Render) loadOffDays(st calendar.Store) error {
	src := []calendar.Source{source.NewGeneric()}
	if r.ICal != "" {
		src = append(src, &source.ICal{Location: r.ICal})
	}
	if r.Override != "" {
		src = append(src, &source.Override{Path: r.Override})
	}

	proc := calendar.NewProcessor(calendar.ProcOpts{Src: src, Store: st})
	if err := proc.UpdateCalendar(r.Year); err != nil {
		return fmt.Errorf("cannot load off days: %w", err)
	}
	log.Printf("[DEBUG] render: off days for %d loaded from %d sources", r.Year, len(src))
	return nil
}

// writeTable печатает сетку как таблицу. Недоступные дни помечены "*".
func writeTable(out io.Writer, month time.Time, res grid.Result) error {
	tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "%s\n", month.Format("January 2006"))

	header := make([]string, 0, len(res.Weekdays))
	for _, wd := range res.Weekdays {
		header = append(header, wd.Value)
	}
	fmt.Fprintf(tw, "%s\t\n", strings.Join(header, "\t"))

	for _, row := range res.DaysInMonth.Calendar {
		cells := make([]string, 0, len(row))
		for _, d := range row {
			cells = append(cells, tableCell(d))
		}
		fmt.Fprintf(tw, "%s\t\n", strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

func tableCell(d grid.Day) string {
	switch d.Kind {
	case grid.Filler:
		return ""
	case grid.WeekLabel:
		return strconv.Itoa(d.WeekNumber)
	default:
		if d.Disabled {
			return d.Value + "*"
		}
		return d.Value
	}
}
