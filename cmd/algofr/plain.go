package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"

	"github.com/gosuda/algofr"
	"github.com/gosuda/algofr/diag"
	aruntime "github.com/gosuda/algofr/runtime"
)

var (
	errColor    = color.New(color.FgRed, color.Bold)
	hintColor   = color.New(color.FgYellow)
	promptColor = color.New(color.FgCyan)
)

func runPlain(app appConfig, logger *slog.Logger) int {
	color.NoColor = !app.color

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stdin := newLineReader(os.Stdin)
	var output []string

	input := aruntime.ScriptedInput(app.run.Inputs...)
	if len(app.run.Inputs) == 0 {
		input = func(ctx context.Context, name string) (string, error) {
			promptColor.Fprintf(os.Stderr, "%s ? ", name)
			return stdin.next(ctx)
		}
	}

	cb := aruntime.Callbacks{
		OnOutput: func(line string) {
			output = append(output, line)
			fmt.Println(line)
		},
		OnInput: input,
		OnStep: func(ctx context.Context) error {
			promptColor.Fprint(os.Stderr, "[Entrée] ")
			_, err := stdin.next(ctx)
			return err
		},
		OnLineChange: func(line int) {
			if app.run.Step {
				hintColor.Fprintf(os.Stderr, "ligne %d ", line)
			}
		},
		OnError: func(e *diag.Error) {
			errColor.Fprintf(os.Stderr, "%s: ", e.Kind.Label())
			fmt.Fprintf(os.Stderr, "%s (ligne %d)\n", e.Message, e.Line)
			if s := diag.Suggest(e); s != "" {
				hintColor.Fprintf(os.Stderr, "Conseil: %s\n", s)
			}
		},
		OnStop: func() {
			hintColor.Fprintln(os.Stderr, "Exécution arrêtée")
		},
	}

	p, err := algofr.Compile(app.source, cb, engineOptions(app, logger)...)
	if err != nil {
		if de, ok := diag.As(err); ok {
			cb.OnError(de)
		} else {
			fmt.Fprintf(os.Stderr, "algofr: %v\n", err)
		}
		return 1
	}
	logger.Debug("program parsed", "name", p.AST.Name, "file", displayName(app.path),
		"variables", len(p.AST.Variables), "functions", len(p.AST.Functions))

	started := time.Now()
	err = p.Run(ctx, app.run.Step)
	saveRun(context.Background(), app, logger, runRecord{
		program: p.AST.Name,
		output:  output,
		memory:  p.Interpreter().Memory(),
		err:     err,
		started: started,
	})
	switch {
	case err == nil:
		return 0
	case errors.Is(err, aruntime.ErrStopped):
		return 130
	}
	return 1
}
