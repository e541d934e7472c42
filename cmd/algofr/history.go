package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"

	"github.com/gosuda/algofr/history"
)

const defaultHistory = "algofr-history.db"

func runHistory(args []string) int {
	opts, optind, err := getopt.Getopts(args, "H:l:d:s:h")
	if err != nil {
		fmt.Fprintf(os.Stderr, "algofr history: %v\n", err)
		return 2
	}
	path := defaultHistory
	limit := 20
	var forget int64
	var sourceFile string
	for _, opt := range opts {
		switch opt.Option {
		case 'H':
			path = opt.Value
		case 'l':
			n, err := strconv.Atoi(opt.Value)
			if err != nil || n < 0 {
				fmt.Fprintln(os.Stderr, "algofr history: invalid -l parameter")
				return 2
			}
			limit = n
		case 'd':
			id, err := strconv.ParseInt(opt.Value, 10, 64)
			if err != nil {
				fmt.Fprintln(os.Stderr, "algofr history: invalid -d parameter")
				return 2
			}
			forget = id
		case 's':
			sourceFile = opt.Value
		default: // case 'h':
			fmt.Print("usage: algofr history [options]\n" +
				"\n" +
				"options:\n" +
				"  -H FILE  history database (default " + defaultHistory + ")\n" +
				"  -l N     list the N most recent runs (0 lists all)\n" +
				"  -s FILE  list the runs of this exact source file\n" +
				"  -d ID    forget a run\n",
			)
			return 1
		}
	}
	if optind < len(args) {
		fmt.Fprintf(os.Stderr, "algofr history: unexpected argument %q\n", args[optind])
		return 2
	}

	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "algofr: %v\n", err)
		return 1
	}
	defer store.Close()
	ctx := context.Background()

	if forget != 0 {
		if err := store.Forget(ctx, forget); err != nil {
			fmt.Fprintf(os.Stderr, "algofr: %v\n", err)
			return 1
		}
		return 0
	}

	var runs []*history.Run
	if sourceFile != "" {
		src, lerr := loadSource(sourceFile)
		if lerr != nil {
			fmt.Fprintf(os.Stderr, "algofr: %v\n", lerr)
			return 1
		}
		runs, err = store.ForSource(ctx, src)
	} else {
		runs, err = store.Recent(ctx, limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "algofr: %v\n", err)
		return 1
	}
	for _, r := range runs {
		printRun(r)
	}
	return 0
}

func printRun(r *history.Run) {
	status := color.GreenString(string(r.Status))
	switch r.Status {
	case history.StatusStopped:
		status = color.YellowString(string(r.Status))
	case history.StatusError:
		status = color.RedString("%s %s:%d", r.Status, r.ErrorKind, r.ErrorLine)
	}
	fmt.Printf("%5d  %s  %-20s %s  %s  %dms  %d lignes\n",
		r.ID,
		time.Unix(r.StartedAt, 0).Format("2006-01-02 15:04:05"),
		r.Program,
		r.SourceHash[:12],
		status,
		r.DurationMs,
		len(r.Lines()),
	)
	if r.ErrorMessage != "" {
		fmt.Printf("       %s\n", r.ErrorMessage)
	}
}
