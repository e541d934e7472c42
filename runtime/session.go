package aruntime

import (
	"context"
	"sync"

	"github.com/edwingeng/deque"

	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/diag"
)

type EventKind int

const (
	EventOutput EventKind = iota
	EventMemory
	EventLine
	EventNeedInput
	EventNeedStep
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventOutput:
		return "output"
	case EventMemory:
		return "memory"
	case EventLine:
		return "line"
	case EventNeedInput:
		return "need-input"
	case EventNeedStep:
		return "need-step"
	case EventDone:
		return "done"
	}
	return "unknown"
}

// Event is one notification from a running session. Done carries the run's
// outcome in Err: nil, ErrStopped or a *diag.Error.
type Event struct {
	Kind   EventKind
	Text   string
	Line   int
	Name   string
	Memory Snapshot
	Err    error
}

// Session runs a program on its own goroutine and turns every callback into
// an Event. Input and step suspensions surface as NeedInput and NeedStep
// events, answered with Provide and Advance. Events must be drained until
// the channel is closed.
type Session struct {
	interp *Interpreter
	cancel context.CancelFunc
	events chan Event
	inputs chan string
	steps  chan struct{}
	done   chan struct{}

	mu       sync.Mutex
	backlog  deque.Deque
	wake     chan struct{}
	finished bool
}

// Start launches prog. Callbacks set on the interpreter by opts are replaced.
func Start(ctx context.Context, prog *ast.Program, step bool, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		cancel:  cancel,
		events:  make(chan Event),
		inputs:  make(chan string),
		steps:   make(chan struct{}),
		done:    make(chan struct{}),
		backlog: deque.NewDeque(),
		wake:    make(chan struct{}, 1),
	}
	s.interp = New(Callbacks{
		OnOutput: func(line string) {
			s.push(Event{Kind: EventOutput, Text: line})
		},
		OnMemoryUpdate: func(snap Snapshot) {
			s.push(Event{Kind: EventMemory, Memory: snap})
		},
		OnLineChange: func(line int) {
			s.push(Event{Kind: EventLine, Line: line})
		},
		OnInput: s.awaitInput,
		OnStep:  s.awaitStep,
	}, opts...)

	go s.pump()
	go func() {
		defer close(s.done)
		defer cancel()
		err := s.interp.Execute(ctx, prog, step)
		ev := Event{Kind: EventDone, Err: err, Line: s.interp.Line(), Memory: s.interp.Memory()}
		if de, ok := diag.As(err); ok {
			ev.Line = de.Line
		}
		s.mu.Lock()
		s.backlog.PushBack(ev)
		s.finished = true
		s.mu.Unlock()
		s.signal()
	}()
	return s
}

func (s *Session) Events() <-chan Event {
	return s.events
}

// Interpreter exposes Pause, Resume and Memory of the underlying run.
func (s *Session) Interpreter() *Interpreter {
	return s.interp
}

// Provide answers the pending NeedInput event.
func (s *Session) Provide(value string) {
	select {
	case s.inputs <- value:
	case <-s.done:
	}
}

// Advance releases the pending NeedStep event.
func (s *Session) Advance() {
	select {
	case s.steps <- struct{}{}:
	case <-s.done:
	}
}

// Stop ends the run, including one whose goroutine has not entered Execute yet.
func (s *Session) Stop() {
	s.cancel()
	s.interp.Stop()
}

// Wait blocks until the run has finished.
func (s *Session) Wait() {
	<-s.done
}

func (s *Session) awaitInput(ctx context.Context, name string) (string, error) {
	s.push(Event{Kind: EventNeedInput, Name: name, Line: s.interp.Line()})
	select {
	case v := <-s.inputs:
		return v, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Session) awaitStep(ctx context.Context) error {
	s.push(Event{Kind: EventNeedStep, Line: s.interp.Line()})
	select {
	case <-s.steps:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) push(ev Event) {
	s.mu.Lock()
	s.backlog.PushBack(ev)
	s.mu.Unlock()
	s.signal()
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump forwards the backlog in order so the interpreter never blocks on a
// slow reader.
func (s *Session) pump() {
	defer close(s.events)
	for {
		s.mu.Lock()
		if s.backlog.Empty() {
			finished := s.finished
			s.mu.Unlock()
			if finished {
				return
			}
			<-s.wake
			continue
		}
		ev := s.backlog.Front().(Event)
		s.backlog.PopFront()
		s.mu.Unlock()
		s.events <- ev
	}
}
