package aruntime_test

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/gosuda/algofr/diag"
	"github.com/gosuda/algofr/parser"
	aruntime "github.com/gosuda/algofr/runtime"
)

type fixture struct {
	Name          string            `yaml:"name"`
	Source        string            `yaml:"source"`
	Inputs        []string          `yaml:"inputs"`
	MaxIterations int               `yaml:"max_iterations"`
	MaxCallDepth  int               `yaml:"max_call_depth"`
	MaxListCells  int               `yaml:"max_list_cells"`
	MaxTextLength int               `yaml:"max_text_length"`
	Output        []string          `yaml:"output"`
	Memory        map[string]string `yaml:"memory"`
	Error         *struct {
		Kind    string `yaml:"kind"`
		Line    int    `yaml:"line"`
		Message string `yaml:"message"`
	} `yaml:"error"`
}

func loadFixtures(t *testing.T, path string) []fixture {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open fixtures: %v", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var out []fixture
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("decode fixtures: %v", err)
	}
	return out
}

type recorder struct {
	output    []string
	errors    []*diag.Error
	completed int
	stopped   int
	memUpdate int
	lines     []int
}

func (r *recorder) callbacks(input aruntime.InputFunc) aruntime.Callbacks {
	return aruntime.Callbacks{
		OnOutput:       func(s string) { r.output = append(r.output, s) },
		OnMemoryUpdate: func(aruntime.Snapshot) { r.memUpdate++ },
		OnLineChange:   func(l int) { r.lines = append(r.lines, l) },
		OnInput:        input,
		OnError:        func(e *diag.Error) { r.errors = append(r.errors, e) },
		OnComplete:     func() { r.completed++ },
		OnStop:         func() { r.stopped++ },
	}
}

func TestProgramFixtures(t *testing.T) {
	for _, fx := range loadFixtures(t, "testdata/programs.yaml") {
		t.Run(fx.Name, func(t *testing.T) {
			prog, err := parser.Parse(fx.Source)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			rec := &recorder{}
			opts := []aruntime.Option{aruntime.WithRand(rand.New(rand.NewSource(1)))}
			if fx.MaxIterations > 0 {
				opts = append(opts, aruntime.WithMaxIterations(fx.MaxIterations))
			}
			if fx.MaxCallDepth > 0 {
				opts = append(opts, aruntime.WithMaxCallDepth(fx.MaxCallDepth))
			}
			if fx.MaxListCells > 0 {
				opts = append(opts, aruntime.WithMaxListCells(fx.MaxListCells))
			}
			if fx.MaxTextLength > 0 {
				opts = append(opts, aruntime.WithMaxTextLength(fx.MaxTextLength))
			}
			in := aruntime.New(rec.callbacks(aruntime.ScriptedInput(fx.Inputs...)), opts...)
			runErr := in.Execute(context.Background(), prog, false)

			if len(rec.output) != len(fx.Output) {
				t.Fatalf("output = %q, want %q", rec.output, fx.Output)
			}
			for i := range fx.Output {
				if rec.output[i] != fx.Output[i] {
					t.Fatalf("output[%d] = %q, want %q", i, rec.output[i], fx.Output[i])
				}
			}

			if fx.Error == nil {
				if runErr != nil {
					t.Fatalf("unexpected error: %v", runErr)
				}
				if rec.completed != 1 || len(rec.errors) != 0 {
					t.Fatalf("completed=%d errors=%d", rec.completed, len(rec.errors))
				}
			} else {
				de, ok := diag.As(runErr)
				if !ok {
					t.Fatalf("expected *diag.Error, got %v", runErr)
				}
				if string(de.Kind) != fx.Error.Kind || de.Line != fx.Error.Line {
					t.Fatalf("error = %s at line %d (%s), want %s at line %d", de.Kind, de.Line, de.Message, fx.Error.Kind, fx.Error.Line)
				}
				if fx.Error.Message != "" && de.Message != fx.Error.Message {
					t.Fatalf("message = %q, want %q", de.Message, fx.Error.Message)
				}
				if rec.completed != 0 || len(rec.errors) != 1 || rec.errors[0] != de {
					t.Fatalf("completed=%d errors=%d", rec.completed, len(rec.errors))
				}
			}

			mem := in.Memory()
			for name, want := range fx.Memory {
				b, ok := mem.Lookup(name)
				if !ok {
					t.Fatalf("variable %s missing from memory", name)
				}
				if got := b.Value.String(); got != want {
					t.Fatalf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func run(t *testing.T, src string, inputs ...string) ([]string, aruntime.Snapshot) {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rec := &recorder{}
	in := aruntime.New(rec.callbacks(aruntime.ScriptedInput(inputs...)), aruntime.WithRand(rand.New(rand.NewSource(7))))
	if err := in.Execute(context.Background(), prog, false); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return rec.output, in.Memory()
}

func TestDeterministicRuns(t *testing.T) {
	src := `
ALGORITHME Moyenne
VARIABLES
  n, i : ENTIER
  total : REEL
  notes : TABLEAU[3]
DEBUT
  LIRE(n)
  POUR i ← 0 A n - 1 FAIRE
    notes[i] ← ALEATOIRE(1, 20)
    total ← total + notes[i]
  FINPOUR
  AFFICHER("moyenne", total / n, notes)
FIN
`
	out1, mem1 := run(t, src, "3")
	out2, mem2 := run(t, src, "3")
	if len(out1) != 1 || out1[0] != out2[0] {
		t.Fatalf("outputs differ: %q vs %q", out1, out2)
	}
	if len(mem1) != len(mem2) {
		t.Fatalf("snapshots differ: %v vs %v", mem1, mem2)
	}
	for i := range mem1 {
		if mem1[i].Name != mem2[i].Name || !mem1[i].Value.Equal(mem2[i].Value) {
			t.Fatalf("binding %d differs: %+v vs %+v", i, mem1[i], mem2[i])
		}
	}
	notes, _ := mem1.Lookup("notes")
	for _, v := range notes.Value.Elems() {
		if v.Num() < 1 || v.Num() > 20 || v.Num() != float64(int(v.Num())) {
			t.Fatalf("ALEATOIRE(1, 20) out of range: %v", v)
		}
	}
}

func TestSnapshotOrderAndIsolation(t *testing.T) {
	_, mem := run(t, `
VARIABLES
  b : BOOLEEN
  t : TABLEAU[2]
  a : ENTIER
DEBUT
  POUR i ← 1 A 1 FAIRE
  FINPOUR
FIN
`)
	want := []string{"b", "t", "a", "i"}
	if len(mem) != len(want) {
		t.Fatalf("unexpected snapshot: %+v", mem)
	}
	for i, name := range want {
		if mem[i].Name != name {
			t.Fatalf("binding %d = %s, want %s", i, mem[i].Name, name)
		}
	}
	if mem[3].Type != "ENTIER" {
		t.Fatalf("loop counter type = %s", mem[3].Type)
	}
	mem[1].Value.Elems()[0] = aruntime.Number(42)
	t2, _ := mem.Lookup("t")
	if t2.Value.Elems()[0].Num() != 42 {
		t.Fatalf("lookup should see the snapshot's own list")
	}
}

func TestNotificationCounts(t *testing.T) {
	prog, err := parser.Parse(`
VARIABLES
  x, y : ENTIER
DEBUT
  x ← 1
  SI x = 1 ALORS
    y ← 2
  FINSI
  AFFICHER(x + y)
FIN
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rec := &recorder{}
	if err := aruntime.New(rec.callbacks(nil)).Execute(context.Background(), prog, false); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// two declarations plus two assignments
	if rec.memUpdate != 4 {
		t.Fatalf("memory updates = %d", rec.memUpdate)
	}
	want := []int{5, 6, 7, 9}
	if len(rec.lines) != len(want) {
		t.Fatalf("lines = %v, want %v", rec.lines, want)
	}
	for i := range want {
		if rec.lines[i] != want[i] {
			t.Fatalf("lines = %v, want %v", rec.lines, want)
		}
	}
	if len(rec.output) != 1 || rec.output[0] != "3" {
		t.Fatalf("output = %q", rec.output)
	}
}

func TestStopDuringInput(t *testing.T) {
	prog, err := parser.Parse("VARIABLES\n  n : ENTIER\nDEBUT\n  LIRE(n)\n  AFFICHER(n)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rec := &recorder{}
	var in *aruntime.Interpreter
	in = aruntime.New(rec.callbacks(func(ctx context.Context, name string) (string, error) {
		in.Stop()
		<-ctx.Done()
		return "", ctx.Err()
	}))
	err = in.Execute(context.Background(), prog, false)
	if !errors.Is(err, aruntime.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if rec.stopped != 1 || rec.completed != 0 || len(rec.errors) != 0 || len(rec.output) != 0 {
		t.Fatalf("stopped=%d completed=%d errors=%d output=%q", rec.stopped, rec.completed, len(rec.errors), rec.output)
	}
	if in.Running() {
		t.Fatalf("interpreter still running")
	}
}

func TestStopAfterInputResumes(t *testing.T) {
	prog, err := parser.Parse("VARIABLES\n  n : ENTIER\nDEBUT\n  LIRE(n)\n  AFFICHER(n)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rec := &recorder{}
	var in *aruntime.Interpreter
	in = aruntime.New(rec.callbacks(func(ctx context.Context, name string) (string, error) {
		in.Stop()
		return "5", nil
	}))
	if err := in.Execute(context.Background(), prog, false); !errors.Is(err, aruntime.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if b, _ := in.Memory().Lookup("n"); b.Value.Num() != 0 {
		t.Fatalf("value stored after stop: %v", b.Value)
	}
}

func TestContextCancellation(t *testing.T) {
	prog, err := parser.Parse("DEBUT\n  TANT QUE VRAI FAIRE\n    AFFICHER(1)\n  FIN TANT QUE\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	cb := rec.callbacks(nil)
	cb.OnOutput = func(s string) {
		rec.output = append(rec.output, s)
		if len(rec.output) == 3 {
			cancel()
		}
	}
	err = aruntime.New(cb).Execute(ctx, prog, false)
	if !errors.Is(err, aruntime.ErrStopped) || len(rec.output) != 3 || rec.stopped != 1 {
		t.Fatalf("err=%v output=%d stopped=%d", err, len(rec.output), rec.stopped)
	}
}

func TestStepMode(t *testing.T) {
	prog, err := parser.Parse("DEBUT\n  AFFICHER(1)\n  AFFICHER(2)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var trace []string
	cb := aruntime.Callbacks{
		OnLineChange: func(l int) { trace = append(trace, "line") },
		OnStep: func(ctx context.Context) error {
			trace = append(trace, "step")
			return nil
		},
		OnOutput: func(s string) { trace = append(trace, s) },
	}
	if err := aruntime.New(cb).Execute(context.Background(), prog, true); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []string{"line", "step", "1", "line", "step", "2"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %q", trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %q, want %q", trace, want)
		}
	}

	trace = nil
	if err := aruntime.New(cb).Execute(context.Background(), prog, false); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, s := range trace {
		if s == "step" {
			t.Fatalf("step callback fired outside step mode")
		}
	}
}

func TestPauseResume(t *testing.T) {
	prog, err := parser.Parse("DEBUT\n  AFFICHER(1)\n  AFFICHER(2)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	lines := make(chan string, 4)
	var in *aruntime.Interpreter
	in = aruntime.New(aruntime.Callbacks{
		OnOutput: func(s string) {
			lines <- s
			if s == "1" {
				in.Pause()
			}
		},
	})
	done := make(chan error, 1)
	go func() { done <- in.Execute(context.Background(), prog, false) }()

	if got := <-lines; got != "1" {
		t.Fatalf("first line = %q", got)
	}
	select {
	case s := <-lines:
		t.Fatalf("ran while paused: %q", s)
	case err := <-done:
		t.Fatalf("finished while paused: %v", err)
	default:
	}
	if !in.Paused() {
		t.Fatalf("interpreter not paused")
	}
	in.Resume()
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := <-lines; got != "2" {
		t.Fatalf("second line = %q", got)
	}
}

func TestStopWhilePaused(t *testing.T) {
	prog, err := parser.Parse("DEBUT\n  AFFICHER(1)\n  AFFICHER(2)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	paused := make(chan struct{})
	var in *aruntime.Interpreter
	in = aruntime.New(aruntime.Callbacks{
		OnOutput: func(s string) {
			in.Pause()
			close(paused)
		},
	})
	done := make(chan error, 1)
	go func() { done <- in.Execute(context.Background(), prog, false) }()
	<-paused
	in.Stop()
	if err := <-done; !errors.Is(err, aruntime.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	in.Resume()
}

func TestStopIsScopedToOneRun(t *testing.T) {
	prog, err := parser.Parse("VARIABLES\n  n : ENTIER\nDEBUT\n  n ← 1\n  AFFICHER(n)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rec := &recorder{}
	var in *aruntime.Interpreter
	cb := rec.callbacks(nil)
	stopOnDeclare := true
	cb.OnMemoryUpdate = func(aruntime.Snapshot) {
		if stopOnDeclare {
			stopOnDeclare = false
			in.Stop()
		}
	}
	in = aruntime.New(cb)

	// a stop issued while the run is setting up its memory still ends it
	if err := in.Execute(context.Background(), prog, false); !errors.Is(err, aruntime.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	// a stop between runs does not leak into the next one
	in.Stop()
	if err := in.Execute(context.Background(), prog, false); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if rec.stopped != 1 || rec.completed != 1 || len(rec.output) != 1 || rec.output[0] != "1" {
		t.Fatalf("stopped=%d completed=%d output=%q", rec.stopped, rec.completed, rec.output)
	}
}

func TestInterpreterIsReusable(t *testing.T) {
	prog, err := parser.Parse("VARIABLES\n  x : ENTIER\nDEBUT\n  x ← x + 1\n  AFFICHER(x)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rec := &recorder{}
	in := aruntime.New(rec.callbacks(nil))
	for i := 0; i < 2; i++ {
		if err := in.Execute(context.Background(), prog, false); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}
	if len(rec.output) != 2 || rec.output[0] != "1" || rec.output[1] != "1" {
		t.Fatalf("memory leaked between runs: %q", rec.output)
	}
}

func TestPanicsBecomeExecutionErrors(t *testing.T) {
	prog, err := parser.Parse("DEBUT\n  AFFICHER(1)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rec := &recorder{}
	cb := rec.callbacks(nil)
	cb.OnOutput = func(string) { panic("boom") }
	err = aruntime.New(cb).Execute(context.Background(), prog, false)
	de, ok := diag.As(err)
	if !ok || de.Kind != diag.KindExecution || de.Line != 2 || de.Message != "Erreur inattendue: boom" {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.errors) != 1 {
		t.Fatalf("OnError fired %d times", len(rec.errors))
	}
}
