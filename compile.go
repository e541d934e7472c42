// Package algofr parses and runs French algorithmic pseudocode.
//
// Most callers only need Run. Hosts that drive execution themselves (step
// debuggers, bridges with their own input) use Compile and the aruntime
// callbacks directly.
package algofr

import (
	"context"

	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/diag"
	"github.com/gosuda/algofr/parser"
	aruntime "github.com/gosuda/algofr/runtime"
)

// Parse returns the AST of src for tooling use.
func Parse(src string) (*ast.Program, error) {
	return parser.Parse(src)
}

// Program is a parsed program bound to an interpreter.
type Program struct {
	AST    *ast.Program
	interp *aruntime.Interpreter
}

// Compile parses src and prepares an interpreter reporting through cb.
func Compile(src string, cb aruntime.Callbacks, opts ...aruntime.Option) (*Program, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return &Program{AST: prog, interp: aruntime.New(cb, opts...)}, nil
}

func (p *Program) Run(ctx context.Context, step bool) error {
	return p.interp.Execute(ctx, p.AST, step)
}

// Interpreter gives access to Stop, Pause, Resume and Memory.
func (p *Program) Interpreter() *aruntime.Interpreter {
	return p.interp
}

// Result is what a non-interactive run produced, up to its end or failure.
type Result struct {
	Output []string
	Memory aruntime.Snapshot
}

// Run parses and executes src, answering LIRE from inputs in order. The
// returned error is a *diag.Error for parse and runtime failures.
func Run(ctx context.Context, src string, inputs []string, opts ...aruntime.Option) (Result, error) {
	var res Result
	p, err := Compile(src, aruntime.Callbacks{
		OnOutput: func(line string) { res.Output = append(res.Output, line) },
		OnInput:  aruntime.ScriptedInput(inputs...),
	}, opts...)
	if err != nil {
		return res, err
	}
	err = p.Run(ctx, false)
	res.Memory = p.interp.Memory()
	return res, err
}

// Report is the JSON shape returned by the web and mobile bridges.
type Report struct {
	Output []string       `json:"output"`
	Memory map[string]any `json:"memory"`
	Error  *ErrorReport   `json:"error,omitempty"`
}

type ErrorReport struct {
	Kind       string `json:"kind"`
	Line       int    `json:"line"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewReport merges a result and the error that ended it.
func NewReport(res Result, err error) Report {
	out := res.Output
	if out == nil {
		out = []string{}
	}
	r := Report{Output: out, Memory: res.Memory.Map()}
	if err == nil {
		return r
	}
	de, ok := diag.As(err)
	if !ok {
		r.Error = &ErrorReport{Kind: string(diag.KindExecution), Message: err.Error()}
		return r
	}
	r.Error = &ErrorReport{
		Kind:       string(de.Kind),
		Line:       de.Line,
		Message:    de.Message,
		Suggestion: diag.Suggest(de),
	}
	return r
}
