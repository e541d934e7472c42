package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.sr.ht/~sircmpwn/getopt"

	"github.com/gosuda/algofr/config"
	"github.com/gosuda/algofr/history"
	"github.com/gosuda/algofr/server"
)

func runServe(args []string) int {
	opts, optind, err := getopt.Getopts(args, "c:H:a:vh")
	if err != nil {
		fmt.Fprintf(os.Stderr, "algofr serve: %v\n", err)
		return 2
	}
	cfg := config.Default()
	for _, opt := range opts {
		if opt.Option == 'c' {
			if cfg, err = config.Load(opt.Value); err != nil {
				fmt.Fprintf(os.Stderr, "algofr serve: %v\n", err)
				return 2
			}
		}
	}
	verbose := false
	for _, opt := range opts {
		switch opt.Option {
		case 'c':
		case 'H':
			cfg.History = opt.Value
		case 'a':
			cfg.Serve.Listen = opt.Value
		case 'v':
			verbose = true
		default: // case 'h':
			fmt.Print("usage: algofr serve [options]\n" +
				"\n" +
				"options:\n" +
				"  -c FILE  load settings from a YAML file\n" +
				"  -a ADDR  listen address (default " + config.Default().Serve.Listen + ")\n" +
				"  -H FILE  record runs in a history database\n" +
				"  -v       debug logging\n",
			)
			return 1
		}
	}
	if optind < len(args) {
		fmt.Fprintln(os.Stderr, "algofr serve: unexpected arguments")
		return 2
	}
	logger := newLogger(cfg.LogLevel, verbose)

	var store *history.Store
	if cfg.History != "" {
		if store, err = history.Open(cfg.History); err != nil {
			fmt.Fprintf(os.Stderr, "algofr serve: %v\n", err)
			return 1
		}
		defer store.Close()
	}

	srv := server.New(cfg, store, logger)
	if err := srv.StartPruning(); err != nil {
		fmt.Fprintf(os.Stderr, "algofr serve: %v\n", err)
		return 1
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		fmt.Fprintf(os.Stderr, "algofr serve: %v\n", err)
		return 1
	case <-sigch:
	}

	logger.Info("interrupted, shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
		return 1
	}
	return 0
}
