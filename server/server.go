// Package server exposes the interpreter over HTTP for a browser playground.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/valyala/fasthttp"

	"github.com/gosuda/algofr"
	"github.com/gosuda/algofr/config"
	"github.com/gosuda/algofr/diag"
	"github.com/gosuda/algofr/history"
	"github.com/gosuda/algofr/lexer"
	aruntime "github.com/gosuda/algofr/runtime"
)

// RunRequest is the body of POST /run.
type RunRequest struct {
	Source string   `json:"source"`
	Inputs []string `json:"inputs"`
}

type Server struct {
	cfg   config.Serve
	opts  []aruntime.Option
	store *history.Store
	log   *slog.Logger
	cache *programCache

	http  *fasthttp.Server
	sched gocron.Scheduler
}

// New builds a server. store may be nil, in which case runs are not
// recorded and the history endpoints answer 404.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:   cfg.Serve,
		opts:  append(cfg.Options(), aruntime.WithLogger(logger)),
		store: store,
		log:   logger,
		cache: newProgramCache(cfg.Serve.CacheSize),
	}
	s.http = &fasthttp.Server{
		Handler:            s.Handle,
		Name:               "algofr",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       cfg.Serve.RunTimeout + 15*time.Second,
		MaxRequestBodySize: 1 << 20,
	}
	return s
}

// Handle routes one request.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch {
	case path == "/run":
		if !ctx.IsPost() {
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		s.handleRun(ctx)
	case path == "/history":
		s.handleHistory(ctx)
	case strings.HasPrefix(path, "/history/"):
		s.handleRunEntry(ctx, strings.TrimPrefix(path, "/history/"))
	case path == "/reference":
		s.handleReference(ctx)
	case path == "/healthz":
		ctx.Success("text/plain", []byte("ok"))
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleRun(ctx *fasthttp.RequestCtx) {
	var req RunRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("invalid json: "+err.Error(), fasthttp.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		ctx.Error("empty source", fasthttp.StatusBadRequest)
		return
	}

	started := time.Now()
	var res algofr.Result
	prog, err := s.cache.parse(req.Source)
	if err == nil {
		runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
		in := aruntime.New(aruntime.Callbacks{
			OnOutput: func(line string) { res.Output = append(res.Output, line) },
			OnInput:  aruntime.ScriptedInput(req.Inputs...),
		}, s.opts...)
		err = in.Execute(runCtx, prog, false)
		if errors.Is(err, aruntime.ErrStopped) && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			s.log.Warn("run timed out", "program", prog.Name, "timeout", s.cfg.RunTimeout)
			err = diag.Execution(in.Line(), "Temps d'exécution dépassé (%s)", s.cfg.RunTimeout)
		}
		cancel()
		res.Memory = in.Memory()
	}
	report := algofr.NewReport(res, err)

	if s.store != nil {
		name := lexer.DefaultName
		if prog != nil {
			name = prog.Name
		}
		run, rErr := s.store.Record(context.Background(), history.Entry{
			Program:  name,
			Source:   req.Source,
			Output:   res.Output,
			Memory:   res.Memory,
			Err:      err,
			Started:  started,
			Duration: time.Since(started),
		})
		if rErr != nil {
			s.log.Error("history write failed", "err", rErr)
		} else {
			ctx.Response.Header.Set("X-Algofr-Run", strconv.FormatInt(run.ID, 10))
		}
	}
	s.writeJSON(ctx, report)
}

func (s *Server) handleHistory(ctx *fasthttp.RequestCtx) {
	if s.store == nil {
		ctx.Error("history disabled", fasthttp.StatusNotFound)
		return
	}
	limit := 20
	if ctx.QueryArgs().Has("limit") {
		n, err := ctx.QueryArgs().GetUint("limit")
		if err != nil {
			ctx.Error("invalid limit", fasthttp.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := s.store.Recent(context.Background(), limit)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	s.writeJSON(ctx, runs)
}

func (s *Server) handleRunEntry(ctx *fasthttp.RequestCtx, raw string) {
	if s.store == nil {
		ctx.Error("history disabled", fasthttp.StatusNotFound)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		ctx.Error("invalid run id", fasthttp.StatusBadRequest)
		return
	}
	if ctx.IsDelete() {
		if err := s.store.Forget(context.Background(), id); err != nil {
			ctx.Error(err.Error(), fasthttp.StatusNotFound)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusNoContent)
		return
	}
	run, err := s.store.Get(context.Background(), id)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusNotFound)
		return
	}
	s.writeJSON(ctx, run)
}

func (s *Server) handleReference(ctx *fasthttp.RequestCtx) {
	s.writeJSON(ctx, map[string][]string{
		"keywords": lexer.Keywords(),
		"builtins": aruntime.BuiltinNames(),
	})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.Success("application/json", buf)
}

// StartPruning schedules the removal of runs older than the retention
// period. It is a no-op without a store or retention.
func (s *Server) StartPruning() error {
	if s.store == nil || s.cfg.Retention <= 0 {
		return nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	job, err := sched.NewJob(gocron.DurationJob(s.cfg.PruneEvery), gocron.NewTask(s.prune))
	if err != nil {
		return err
	}
	s.log.Info("history pruning scheduled", "job", job.ID(), "every", s.cfg.PruneEvery, "retention", s.cfg.Retention)
	s.sched = sched
	sched.Start()
	return nil
}

func (s *Server) prune() {
	n, err := s.store.Prune(context.Background(), time.Now().Add(-s.cfg.Retention))
	if err != nil {
		s.log.Error("history prune failed", "err", err)
		return
	}
	if n > 0 {
		s.log.Info("history pruned", "runs", n)
	}
}

// ListenAndServe blocks until Shutdown or a listener failure.
func (s *Server) ListenAndServe() error {
	s.log.Info("starting HTTP server", "addr", s.cfg.Listen)
	return s.http.ListenAndServe(s.cfg.Listen)
}

// Shutdown stops the prune job and waits for open requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sched != nil {
		if err := s.sched.Shutdown(); err != nil {
			s.log.Error("scheduler shutdown failed", "err", err)
		}
	}
	return s.http.ShutdownWithContext(ctx)
}
