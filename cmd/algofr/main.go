package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/gosuda/algofr/config"
)

const usage = `usage: algofr [options] file.algo
       algofr history [-H db] [-l n] [-d id]
       algofr serve [-c file] [-a addr] [-H db]

options:
  -c FILE  load settings from a YAML file
  -s       step mode: Enter runs the next statement
  -t       full-screen step debugger
  -i VALUE answer the next LIRE with VALUE (repeatable)
  -H FILE  record the run in a history database
  -n       disable colors
  -v       log the statement trace to stderr
`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "history" {
		os.Exit(runHistory(os.Args[1:]))
	}
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		os.Exit(runServe(os.Args[1:]))
	}
	os.Exit(run(os.Args))
}

func run(args []string) int {
	opts, optind, err := getopt.Getopts(args, "c:sti:H:nvh")
	if err != nil {
		fmt.Fprintf(os.Stderr, "algofr: %v\n%s", err, usage)
		return 2
	}

	cfg := config.Default()
	for _, opt := range opts {
		if opt.Option == 'c' {
			if cfg, err = config.Load(opt.Value); err != nil {
				fmt.Fprintf(os.Stderr, "algofr: %v\n", err)
				return 2
			}
		}
	}
	tty := isatty.IsTerminal(os.Stdout.Fd())
	verbose := false
	var inputs []string
	for _, opt := range opts {
		switch opt.Option {
		case 'c':
		case 's':
			cfg.Step = true
		case 't':
			cfg.TUI = true
		case 'i':
			inputs = append(inputs, opt.Value)
		case 'H':
			cfg.History = opt.Value
		case 'n':
			f := false
			cfg.Color = &f
		case 'v':
			verbose = true
		default: // case 'h':
			fmt.Print(usage)
			return 1
		}
	}
	if len(inputs) > 0 {
		cfg.Inputs = inputs
	}

	rest := args[optind:]
	if len(rest) != 1 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	src, err := loadSource(rest[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "algofr: %v\n", err)
		return 1
	}

	app := appConfig{
		path:    rest[0],
		source:  src,
		run:     cfg,
		color:   cfg.ColorEnabled(tty),
		history: cfg.History,
	}
	logger := newLogger(cfg.LogLevel, verbose)

	if cfg.TUI {
		p := tea.NewProgram(newModel(app, logger), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "tui: %v\n", err)
			return 1
		}
		return 0
	}
	return runPlain(app, logger)
}

func newLogger(level string, verbose bool) *slog.Logger {
	lvl := slog.LevelWarn
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
