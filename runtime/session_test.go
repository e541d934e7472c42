package aruntime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gosuda/algofr/diag"
	"github.com/gosuda/algofr/parser"
	aruntime "github.com/gosuda/algofr/runtime"
)

func TestSessionInputAndSteps(t *testing.T) {
	prog, err := parser.Parse("VARIABLES\n  nom : CHAINE\nDEBUT\n  LIRE(nom)\n  AFFICHER(\"Bonjour \" + nom)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	s := aruntime.Start(context.Background(), prog, true)

	var output []string
	var steps, inputs int
	var done *aruntime.Event
	for ev := range s.Events() {
		switch ev.Kind {
		case aruntime.EventNeedStep:
			steps++
			s.Advance()
		case aruntime.EventNeedInput:
			inputs++
			if ev.Name != "nom" || ev.Line != 4 {
				t.Fatalf("unexpected input request: %+v", ev)
			}
			s.Provide("Ada")
		case aruntime.EventOutput:
			output = append(output, ev.Text)
		case aruntime.EventDone:
			ev := ev
			done = &ev
		}
	}
	s.Wait()

	if steps != 2 || inputs != 1 {
		t.Fatalf("steps=%d inputs=%d", steps, inputs)
	}
	if len(output) != 1 || output[0] != "Bonjour Ada" {
		t.Fatalf("output = %q", output)
	}
	if done == nil || done.Err != nil {
		t.Fatalf("done = %+v", done)
	}
	if b, ok := done.Memory.Lookup("nom"); !ok || b.Value.Str() != "Ada" {
		t.Fatalf("final memory = %+v", done.Memory)
	}
}

func TestSessionReportsErrors(t *testing.T) {
	prog, err := parser.Parse("DEBUT\n  AFFICHER(1)\n  AFFICHER(1 / 0)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	s := aruntime.Start(context.Background(), prog, false)
	var last aruntime.Event
	var kinds []aruntime.EventKind
	for ev := range s.Events() {
		kinds = append(kinds, ev.Kind)
		last = ev
	}
	if last.Kind != aruntime.EventDone {
		t.Fatalf("last event = %v", last.Kind)
	}
	de, ok := diag.As(last.Err)
	if !ok || de.Kind != diag.KindExecution || last.Line != 3 {
		t.Fatalf("done = %+v", last)
	}
	want := []aruntime.EventKind{aruntime.EventLine, aruntime.EventOutput, aruntime.EventLine, aruntime.EventDone}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events = %v, want %v", kinds, want)
		}
	}
}

func TestSessionStopWhileWaitingForInput(t *testing.T) {
	prog, err := parser.Parse("VARIABLES\n  n : ENTIER\nDEBUT\n  LIRE(n)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	s := aruntime.Start(context.Background(), prog, false)
	var last aruntime.Event
	for ev := range s.Events() {
		if ev.Kind == aruntime.EventNeedInput {
			s.Stop()
		}
		last = ev
	}
	if last.Kind != aruntime.EventDone || !errors.Is(last.Err, aruntime.ErrStopped) {
		t.Fatalf("done = %+v", last)
	}
	// answering after the run ended must not block
	s.Provide("1")
	s.Advance()
}

func TestSessionStopRightAfterStart(t *testing.T) {
	prog, err := parser.Parse("DEBUT\n  TANT QUE VRAI FAIRE\n    AFFICHER(1)\n  FIN TANT QUE\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		s := aruntime.Start(context.Background(), prog, false, aruntime.WithMaxIterations(1<<40))
		s.Stop()
		var last aruntime.Event
		for ev := range s.Events() {
			last = ev
		}
		if last.Kind != aruntime.EventDone || !errors.Is(last.Err, aruntime.ErrStopped) {
			t.Fatalf("run %d: done = %+v", i, last)
		}
	}
}

func TestSessionRejectsConcurrentExecute(t *testing.T) {
	prog, err := parser.Parse("VARIABLES\n  n : ENTIER\nDEBUT\n  LIRE(n)\nFIN")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	s := aruntime.Start(context.Background(), prog, false)
	for ev := range s.Events() {
		if ev.Kind == aruntime.EventNeedInput {
			if err := s.Interpreter().Execute(context.Background(), prog, false); !errors.Is(err, aruntime.ErrBusy) {
				t.Fatalf("expected ErrBusy, got %v", err)
			}
			s.Provide("3")
		}
	}
	if b, _ := s.Interpreter().Memory().Lookup("n"); b.Value.Num() != 3 {
		t.Fatalf("n = %v", b.Value)
	}
}
