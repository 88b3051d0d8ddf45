// Package cmd содержит команды CLI: server, render, sync, backup.
package cmd

import (
	"github.com/nvkalinin/month-grid/grid"
	"github.com/nvkalinin/month-grid/rest"
)

// GridFlags — настройки сетки, общие для server и render.
type GridFlags struct {
	Locale      string `long:"locale" env:"LOCALE" value-name:"bcp47" default:"en" description:"Язык названий дней недели и дат."`
	FirstDay    int    `long:"first-day" env:"FIRST_DAY" value-name:"0-6" default:"0" description:"Первый день недели, 0 — воскресенье."`
	WeekNumbers bool   `long:"week-numbers" env:"WEEK_NUMBERS" description:"Показывать колонку с номерами недель."`
	WeekType    string `long:"week-type" env:"WEEK_TYPE" value-name:"type" choice:"first-4-day-week" choice:"first-day-of-year" choice:"first-full-week" default:"first-4-day-week" description:"Правило нумерации недель."`
}

func (g GridFlags) defaults() rest.GridDefaults {
	return rest.GridDefaults{
		Locale:         g.Locale,
		FirstDayOfWeek: g.FirstDay,
		ShowWeekNumber: g.WeekNumbers,
		WeekNumberType: grid.WeekNumberType(g.WeekType),
	}
}
