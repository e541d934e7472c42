// Package aruntime executes parsed pseudocode programs.
//
// An Interpreter runs one program at a time on the caller's goroutine and
// reports progress through Callbacks. LIRE and step mode are suspension
// points: the corresponding callbacks block until the host answers, and
// Stop cancels the context they were given.
package aruntime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tevino/abool/v2"

	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/diag"
)

const (
	DefaultMaxIterations = 100000
	DefaultMaxCallDepth  = 10000
	// DefaultMaxListCells bounds the elements of all arrays declared by a run.
	DefaultMaxListCells = 1 << 20
	// DefaultMaxTextLength bounds the byte length of a concatenated text.
	DefaultMaxTextLength = 1 << 24
)

var (
	ErrStopped = errors.New("aruntime: execution stopped")
	ErrBusy    = errors.New("aruntime: interpreter already running")
)

// Callbacks are invoked synchronously from Execute. All of them are optional.
type Callbacks struct {
	OnOutput       func(line string)
	OnMemoryUpdate func(Snapshot)
	OnLineChange   func(line int)
	OnInput        InputFunc
	OnStep         func(ctx context.Context) error
	OnError        func(*diag.Error)
	OnComplete     func()
	OnStop         func()
}

type Option func(*Interpreter)

// WithMaxIterations sets the ceiling shared by TANT QUE and POUR loops.
func WithMaxIterations(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxIterations = n
		}
	}
}

func WithMaxCallDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxCallDepth = n
		}
	}
}

// WithMaxListCells caps the total number of array elements a program may declare.
func WithMaxListCells(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxListCells = n
		}
	}
}

func WithMaxTextLength(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxTextLength = n
		}
	}
}

// WithRand fixes the source used by ALEATOIRE.
func WithRand(r *rand.Rand) Option {
	return func(in *Interpreter) {
		if r != nil {
			in.rng = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.log = l
		}
	}
}

type Interpreter struct {
	cb            Callbacks
	maxIterations int
	maxCallDepth  int
	maxListCells  int
	maxTextLength int
	rng           *rand.Rand
	log           *slog.Logger

	mem   atomic.Pointer[memory]
	funcs map[string]*ast.FunctionDecl
	step  bool
	line  atomic.Int64
	calls int

	running  *abool.AtomicBool
	stopped  *abool.AtomicBool
	gate     pauseGate
	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

type resultKind int

const (
	resultNone resultKind = iota
	resultReturn
)

type execResult struct {
	kind  resultKind
	value Value
}

func New(cb Callbacks, opts ...Option) *Interpreter {
	in := &Interpreter{
		cb:            cb,
		maxIterations: DefaultMaxIterations,
		maxCallDepth:  DefaultMaxCallDepth,
		maxListCells:  DefaultMaxListCells,
		maxTextLength: DefaultMaxTextLength,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		running:       abool.NewBool(false),
		stopped:       abool.NewBool(false),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.mem.Store(newMemory())
	return in
}

// Memory returns the variables visible at the current statement, or at the
// end of the last run.
func (in *Interpreter) Memory() Snapshot {
	return in.mem.Load().snapshot()
}

// Line is the line of the statement most recently started.
func (in *Interpreter) Line() int {
	return int(in.line.Load())
}

// Execute runs prog with fresh memory. It returns nil on completion,
// ErrStopped after Stop or context cancellation, and the reported
// *diag.Error otherwise. Exactly one of OnComplete, OnStop or OnError fires.
func (in *Interpreter) Execute(ctx context.Context, prog *ast.Program, step bool) error {
	if !in.running.SetToIf(false, true) {
		return ErrBusy
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	in.cancelMu.Lock()
	in.cancel = cancel
	if in.stopped.IsSet() {
		cancel()
	}
	in.cancelMu.Unlock()
	defer func() {
		in.cancelMu.Lock()
		in.cancel = nil
		in.stopped.UnSet()
		in.running.UnSet()
		in.cancelMu.Unlock()
	}()

	in.mem.Store(newMemory())
	in.funcs = map[string]*ast.FunctionDecl{}
	in.step = step
	in.line.Store(0)
	in.calls = 0

	started := time.Now()
	err := in.run(ctx, prog)
	switch {
	case err == nil:
		in.log.Debug("run complete", "program", prog.Name, "elapsed", time.Since(started))
		if in.cb.OnComplete != nil {
			in.cb.OnComplete()
		}
		return nil
	case errors.Is(err, ErrStopped):
		in.log.Debug("run stopped", "program", prog.Name, "line", in.Line())
		if in.cb.OnStop != nil {
			in.cb.OnStop()
		}
		return ErrStopped
	default:
		de := diag.Wrap(err, in.Line())
		in.log.Debug("run failed", "program", prog.Name, "line", de.Line, "kind", de.Kind, "err", de.Message)
		if in.cb.OnError != nil {
			in.cb.OnError(de)
		}
		return de
	}
}

func (in *Interpreter) run(ctx context.Context, prog *ast.Program) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = diag.Execution(in.Line(), "Erreur inattendue: %v", r)
		}
	}()

	mem := in.mem.Load()
	cells := 0
	for _, decl := range prog.Variables {
		if decl.Type == ast.Array || decl.Type == ast.List {
			cells += max(decl.Size, 0)
			if cells > in.maxListCells {
				return diag.Execution(decl.Line, "Tableau '%s' trop grand: plus de %d éléments au total", decl.Name, in.maxListCells)
			}
		}
		mem.define(decl.Name, decl.Type, zeroValue(decl))
		in.notifyMemory()
	}
	for _, fn := range prog.Functions {
		in.funcs[fn.Name] = fn
	}
	_, err = in.execBlock(ctx, prog.Body)
	return err
}

func zeroValue(decl ast.VariableDeclaration) Value {
	switch decl.Type {
	case ast.Integer, ast.Real:
		return Number(0)
	case ast.Boolean:
		return Bool(false)
	case ast.String, ast.Character:
		return Text("")
	case ast.Array, ast.List:
		return zeroList(decl.Size)
	}
	return Null()
}

func (in *Interpreter) notifyMemory() {
	if in.cb.OnMemoryUpdate != nil {
		in.cb.OnMemoryUpdate(in.mem.Load().snapshot())
	}
}

func (in *Interpreter) emit(line string) {
	if in.cb.OnOutput != nil {
		in.cb.OnOutput(line)
	}
}

// callFunction resolves builtins first, case-insensitively, then user
// functions by exact name. Arguments are evaluated before the callee's
// frame is pushed, in the caller's scope.
func (in *Interpreter) callFunction(ctx context.Context, call *ast.CallExpr) (Value, error) {
	args := make([]Value, 0, len(call.Args))
	for _, a := range call.Args {
		v, err := in.evalExpr(ctx, a)
		if err != nil {
			return Value{}, err
		}
		args = append(args, v)
	}
	if b, ok := builtins[strings.ToUpper(call.Name)]; ok {
		return in.callBuiltin(strings.ToUpper(call.Name), b, args, call.Line)
	}

	fn := in.funcs[call.Name]
	if fn == nil {
		return Value{}, diag.Semantic(call.Line, "Fonction '%s' non définie", call.Name)
	}
	if in.calls >= in.maxCallDepth {
		return Value{}, diag.Execution(call.Line, "Profondeur maximale d'appels dépassée (> %d)", in.maxCallDepth)
	}
	in.calls++
	defer func() { in.calls-- }()

	mem := in.mem.Load()
	mem.push()
	defer mem.pop()
	for i, p := range fn.Params {
		v := Null()
		if i < len(args) {
			v = args[i]
		}
		mem.define(p.Name, p.Type, v)
	}

	res, err := in.execBlock(ctx, fn.Body)
	if err != nil {
		return Value{}, err
	}
	if res.kind == resultReturn {
		return res.value, nil
	}
	return Null(), nil
}
