package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/nvkalinin/month-grid/cmd"
	"github.com/nvkalinin/month-grid/log"
)

type CLI struct {
	Debug bool `short:"d" long:"debug" env:"DEBUG" description:"Выводить отладочные сообщения в лог."`

	Server cmd.Server `command:"server" description:"Запустить сервер (rest + периодическая синхронизация)."`
	Render cmd.Render `command:"render" description:"Построить сетку месяца и вывести ее в stdout."`
	Sync   cmd.Sync   `command:"sync" description:"Синхронизировать календарь за указанный год."`
	Backup cmd.Backup `command:"backup" description:"Сделать резервную копию хранилища bolt."`
}

func main() {
	// Переменные из .env не перекрывают уже заданные в окружении.
	// Файла может не быть, но битый .env — ошибка конфигурации.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("[ERROR] cannot load .env: %v", err)
	}

	cli := &CLI{}
	parser := flags.NewParser(cli, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		log.AllowDebug = cli.Debug

		if cmd != nil {
			return cmd.Execute(args)
		}
		return nil
	}

	if _, err := parser.Parse(); err != nil {
		flagsErr, isFlagsErr := err.(flags.ErrorType)
		if isFlagsErr && flagsErr == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
