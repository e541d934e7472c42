package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/gosuda/algofr"
	"github.com/gosuda/algofr/history"
	aruntime "github.com/gosuda/algofr/runtime"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(t *testing.T, s *history.Store, src string, inputs ...string) *history.Run {
	t.Helper()
	started := time.Now()
	res, err := algofr.Run(context.Background(), src, inputs)
	run, rErr := s.Record(context.Background(), history.Entry{
		Program:  "test",
		Source:   src,
		Output:   res.Output,
		Memory:   res.Memory,
		Err:      err,
		Started:  started,
		Duration: time.Since(started),
	})
	if rErr != nil {
		t.Fatalf("record failed: %v", rErr)
	}
	return run
}

func TestRecordAndList(t *testing.T) {
	s := openStore(t)
	ok := record(t, s, "VARIABLES\n  n : ENTIER\nDEBUT\n  LIRE(n)\n  AFFICHER(n * 2)\n  AFFICHER(\"fin\")\nFIN", "21")
	bad := record(t, s, "DEBUT\n  AFFICHER(1 / 0)\nFIN")

	if ok.Status != history.StatusComplete || bad.Status != history.StatusError {
		t.Fatalf("statuses = %s, %s", ok.Status, bad.Status)
	}
	if bad.ErrorKind != "execution" || bad.ErrorLine != 2 || bad.ErrorMessage != "Division par zéro" {
		t.Fatalf("unexpected error columns: %+v", bad)
	}

	runs, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != bad.ID || runs[1].ID != ok.ID {
		t.Fatalf("unexpected order: %+v", runs)
	}
	lines := runs[1].Lines()
	if len(lines) != 2 || lines[0] != "42" || lines[1] != "fin" {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if runs[1].Memory != `{"n":{"type":"ENTIER","value":21}}` {
		t.Fatalf("unexpected memory: %s", runs[1].Memory)
	}

	limited, err := s.Recent(context.Background(), 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit ignored: %v %v", limited, err)
	}
}

func TestForSourceUsesDigest(t *testing.T) {
	s := openStore(t)
	src := "DEBUT\n  AFFICHER(1)\nFIN"
	record(t, s, src)
	record(t, s, "DEBUT\n  AFFICHER(2)\nFIN")
	record(t, s, src)

	runs, err := s.ForSource(context.Background(), src)
	if err != nil {
		t.Fatalf("for source failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, r := range runs {
		if r.SourceHash != history.Digest(src) || r.Source != src {
			t.Fatalf("unexpected run: %+v", r)
		}
	}
	if len(history.Digest(src)) != 64 || history.Digest(src) == history.Digest(src+" ") {
		t.Fatalf("unexpected digest")
	}
}

func TestForgetIsSoft(t *testing.T) {
	s := openStore(t)
	run := record(t, s, "DEBUT\n  AFFICHER(1)\nFIN")
	if err := s.Forget(context.Background(), run.ID); err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if _, err := s.Get(context.Background(), run.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	runs, err := s.Recent(context.Background(), 0)
	if err != nil || len(runs) != 0 {
		t.Fatalf("forgotten run still listed: %v %v", runs, err)
	}
	if err := s.Forget(context.Background(), run.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second forget should fail, got %v", err)
	}
}

func TestRecordStopped(t *testing.T) {
	s := openStore(t)
	run, err := s.Record(context.Background(), history.Entry{Source: "DEBUT\nFIN", Err: aruntime.ErrStopped})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if run.Status != history.StatusStopped || run.ErrorKind != "" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Memory != "{}" {
		t.Fatalf("unexpected memory: %s", run.Memory)
	}
}

func TestPrune(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	old, err := s.Record(ctx, history.Entry{Source: "DEBUT\nFIN", Started: time.Now().Add(-48 * time.Hour)})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	fresh, err := s.Record(ctx, history.Entry{Source: "DEBUT\nFIN", Started: time.Now()})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	n, err := s.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("prune = %d, %v", n, err)
	}
	runs, err := s.Recent(ctx, 0)
	if err != nil || len(runs) != 1 || runs[0].ID != fresh.ID || runs[0].ID == old.ID {
		t.Fatalf("unexpected runs after prune: %+v %v", runs, err)
	}
}
