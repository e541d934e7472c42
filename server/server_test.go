package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/gosuda/algofr"
	"github.com/gosuda/algofr/config"
	"github.com/gosuda/algofr/history"
	aruntime "github.com/gosuda/algofr/runtime"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	var store *history.Store
	if withStore {
		var err error
		store, err = history.Open(filepath.Join(t.TempDir(), "history.db"))
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		t.Cleanup(func() { store.Close() })
	}
	cfg := config.Default()
	cfg.Serve.RunTimeout = 2 * time.Second
	cfg.Serve.CacheSize = 2
	return New(cfg, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(s *Server, method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.SetBodyString(body)
	}
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	s.Handle(&ctx)
	return &ctx
}

func runBody(t *testing.T, src string, inputs ...string) string {
	t.Helper()
	buf, err := json.Marshal(RunRequest{Source: src, Inputs: inputs})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return string(buf)
}

func decodeReport(t *testing.T, ctx *fasthttp.RequestCtx) algofr.Report {
	t.Helper()
	if code := ctx.Response.StatusCode(); code != fasthttp.StatusOK {
		t.Fatalf("status = %d, body %s", code, ctx.Response.Body())
	}
	var rep algofr.Report
	if err := json.Unmarshal(ctx.Response.Body(), &rep); err != nil {
		t.Fatalf("bad report %s: %v", ctx.Response.Body(), err)
	}
	return rep
}

func TestRunEndpoint(t *testing.T) {
	s := newTestServer(t, true)
	src := "ALGORITHME Double\nVARIABLES\n  n : ENTIER\nDEBUT\n  LIRE(n)\n  AFFICHER(n * 2)\nFIN"
	ctx := do(s, "POST", "/run", runBody(t, src, "21"))
	rep := decodeReport(t, ctx)
	if len(rep.Output) != 1 || rep.Output[0] != "42" || rep.Error != nil {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if string(ctx.Response.Header.Peek("X-Algofr-Run")) == "" {
		t.Fatalf("run id header missing")
	}

	runs := listHistory(t, s, "/history")
	if len(runs) != 1 || runs[0].Program != "Double" || runs[0].Status != history.StatusComplete {
		t.Fatalf("unexpected history: %+v", runs)
	}
}

func TestRunEndpointReportsErrors(t *testing.T) {
	s := newTestServer(t, true)

	rep := decodeReport(t, do(s, "POST", "/run", runBody(t, "DEBUT\n  AFFICHER(\"a\")\n  AFFICHER(1 / 0)\nFIN")))
	if len(rep.Output) != 1 || rep.Error == nil || rep.Error.Kind != "execution" || rep.Error.Line != 3 {
		t.Fatalf("unexpected report: %+v %+v", rep, rep.Error)
	}

	rep = decodeReport(t, do(s, "POST", "/run", runBody(t, "DEBUT\n  AFFICHER(1)\n")))
	if rep.Error == nil || rep.Error.Kind != "parse" {
		t.Fatalf("expected parse error, got %+v", rep.Error)
	}
	if rep.Output == nil {
		t.Fatalf("output must encode as an empty list")
	}

	runs := listHistory(t, s, "/history?limit=1")
	if len(runs) != 1 || runs[0].Status != history.StatusError || runs[0].ErrorKind != "parse" {
		t.Fatalf("unexpected history: %+v", runs)
	}
}

func TestRunEndpointTimesOut(t *testing.T) {
	s := newTestServer(t, false)
	s.cfg.RunTimeout = 50 * time.Millisecond
	s.opts = append(s.opts, aruntime.WithMaxIterations(1<<40))
	src := "VARIABLES\n  i : ENTIER\nDEBUT\n  i <- 0\n  TANT QUE i >= 0 FAIRE\n    i <- 1\n  FIN TANT QUE\nFIN"
	rep := decodeReport(t, do(s, "POST", "/run", runBody(t, src)))
	if rep.Error == nil || rep.Error.Kind != "execution" || !strings.HasPrefix(rep.Error.Message, "Temps d'exécution dépassé") {
		t.Fatalf("expected a timeout error, got %+v", rep.Error)
	}
}

func TestRunEndpointBoundsMemory(t *testing.T) {
	s := newTestServer(t, false)
	for _, src := range []string{
		"VARIABLES\n  t : TABLEAU[2000000000]\nDEBUT\n  AFFICHER(1)\nFIN",
		"VARIABLES\n  s : CHAINE\nDEBUT\n  s ← \"ab\"\n  TANT QUE VRAI FAIRE\n    s ← s + s\n  FIN TANT QUE\nFIN",
	} {
		rep := decodeReport(t, do(s, "POST", "/run", runBody(t, src)))
		if rep.Error == nil || rep.Error.Kind != "execution" {
			t.Fatalf("expected an execution error, got %+v", rep.Error)
		}
	}
}

func TestRunEndpointRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, false)
	for _, tc := range []struct {
		method, uri, body string
		code              int
	}{
		{"GET", "/run", "", fasthttp.StatusMethodNotAllowed},
		{"POST", "/run", "{", fasthttp.StatusBadRequest},
		{"POST", "/run", `{"source":"  "}`, fasthttp.StatusBadRequest},
		{"GET", "/history", "", fasthttp.StatusNotFound},
		{"GET", "/nope", "", fasthttp.StatusNotFound},
	} {
		ctx := do(s, tc.method, tc.uri, tc.body)
		if got := ctx.Response.StatusCode(); got != tc.code {
			t.Fatalf("%s %s: status = %d, want %d", tc.method, tc.uri, got, tc.code)
		}
	}
}

func TestHistoryEntry(t *testing.T) {
	s := newTestServer(t, true)
	ctx := do(s, "POST", "/run", runBody(t, "DEBUT\n  AFFICHER(1)\nFIN"))
	id := string(ctx.Response.Header.Peek("X-Algofr-Run"))

	ctx = do(s, "GET", "/history/"+id, "")
	var run history.Run
	if err := json.Unmarshal(ctx.Response.Body(), &run); err != nil || run.Output != "1" {
		t.Fatalf("unexpected run %s: %v", ctx.Response.Body(), err)
	}

	if code := do(s, "DELETE", "/history/"+id, "").Response.StatusCode(); code != fasthttp.StatusNoContent {
		t.Fatalf("delete status = %d", code)
	}
	if code := do(s, "GET", "/history/"+id, "").Response.StatusCode(); code != fasthttp.StatusNotFound {
		t.Fatalf("forgotten run status = %d", code)
	}
	if code := do(s, "GET", "/history/abc", "").Response.StatusCode(); code != fasthttp.StatusBadRequest {
		t.Fatalf("bad id status = %d", code)
	}
}

func TestReferenceAndHealth(t *testing.T) {
	s := newTestServer(t, false)
	ctx := do(s, "GET", "/reference", "")
	var ref map[string][]string
	if err := json.Unmarshal(ctx.Response.Body(), &ref); err != nil {
		t.Fatalf("bad reference: %v", err)
	}
	if !contains(ref["keywords"], "TANT") || !contains(ref["builtins"], "RACINE") {
		t.Fatalf("unexpected reference: %v", ref)
	}
	if body := string(do(s, "GET", "/healthz", "").Response.Body()); body != "ok" {
		t.Fatalf("healthz = %q", body)
	}
}

func TestProgramCache(t *testing.T) {
	c := newProgramCache(2)
	a, err := c.parse("DEBUT\n  AFFICHER(1)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	again, _ := c.parse("DEBUT\n  AFFICHER(1)\nFIN")
	if a != again || c.len() != 1 {
		t.Fatalf("cache miss for identical source")
	}
	if _, err := c.parse("DEBUT\n"); err == nil || c.len() != 1 {
		t.Fatalf("parse errors must not be cached")
	}
	c.parse("DEBUT\n  AFFICHER(2)\nFIN")
	c.parse("DEBUT\n  AFFICHER(3)\nFIN")
	if c.len() != 1 {
		t.Fatalf("cache should reset when full, has %d", c.len())
	}

	off := newProgramCache(0)
	off.parse("DEBUT\nFIN")
	if off.len() != 0 {
		t.Fatalf("disabled cache stored a program")
	}
}

func TestPruneJob(t *testing.T) {
	s := newTestServer(t, true)
	s.cfg.Retention = time.Hour
	if _, err := s.store.Record(context.Background(), history.Entry{Source: "DEBUT\nFIN", Started: time.Now().Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	s.prune()
	if runs := listHistory(t, s, "/history"); len(runs) != 0 {
		t.Fatalf("old run not pruned: %+v", runs)
	}

	if err := s.StartPruning(); err != nil {
		t.Fatalf("start pruning: %v", err)
	}
	if s.sched == nil {
		t.Fatalf("scheduler not started")
	}
	if err := s.sched.Shutdown(); err != nil {
		t.Fatalf("scheduler shutdown: %v", err)
	}
}

func listHistory(t *testing.T, s *Server, uri string) []history.Run {
	t.Helper()
	ctx := do(s, "GET", uri, "")
	var runs []history.Run
	if err := json.Unmarshal(ctx.Response.Body(), &runs); err != nil {
		t.Fatalf("bad history %s: %v", ctx.Response.Body(), err)
	}
	return runs
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
