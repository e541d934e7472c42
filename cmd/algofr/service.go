package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gosuda/algofr/history"
	aruntime "github.com/gosuda/algofr/runtime"
)

func engineOptions(app appConfig, logger *slog.Logger) []aruntime.Option {
	return append(app.run.Options(), aruntime.WithLogger(logger))
}

// runRecord is what a runner hands to the history store once a run ends.
type runRecord struct {
	program string
	output  []string
	memory  aruntime.Snapshot
	err     error
	started time.Time
}

func saveRun(ctx context.Context, app appConfig, logger *slog.Logger, rec runRecord) {
	if app.history == "" {
		return
	}
	store, err := history.Open(app.history)
	if err != nil {
		logger.Error("history unavailable", "path", app.history, "err", err)
		return
	}
	defer store.Close()
	run, err := store.Record(ctx, history.Entry{
		Program:  rec.program,
		Source:   app.source,
		Output:   rec.output,
		Memory:   rec.memory,
		Err:      rec.err,
		Started:  rec.started,
		Duration: time.Since(rec.started),
	})
	if err != nil {
		logger.Error("history write failed", "err", err)
		return
	}
	logger.Info("run recorded", "id", run.ID, "status", run.Status)
}

// lineReader turns a blocking reader into lines that can be awaited with a
// context.
type lineReader struct {
	lines chan string
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{lines: make(chan string)}
	go func() {
		defer close(lr.lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lr.lines <- strings.TrimRight(sc.Text(), "\r")
		}
	}()
	return lr
}

func (lr *lineReader) next(ctx context.Context) (string, error) {
	select {
	case line, ok := <-lr.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
