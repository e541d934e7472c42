package aruntime

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/diag"
)

func (in *Interpreter) execBlock(ctx context.Context, stmts []ast.Statement) (execResult, error) {
	for _, stmt := range stmts {
		res, err := in.execStatement(ctx, stmt)
		if err != nil {
			return execResult{}, err
		}
		if res.kind == resultReturn {
			return res, nil
		}
	}
	return execResult{}, nil
}

// execStatement runs the per-statement protocol: stop check, pause gate,
// line report, step gate, stop check, then the statement itself.
func (in *Interpreter) execStatement(ctx context.Context, stmt ast.Statement) (execResult, error) {
	if err := in.checkStopped(ctx); err != nil {
		return execResult{}, err
	}
	if err := in.gate.wait(ctx); err != nil {
		return execResult{}, ErrStopped
	}

	line := stmt.Pos()
	in.line.Store(int64(line))
	if in.cb.OnLineChange != nil {
		in.cb.OnLineChange(line)
	}
	if in.step && in.cb.OnStep != nil {
		if err := in.cb.OnStep(ctx); err != nil {
			if in.checkStopped(ctx) != nil {
				return execResult{}, ErrStopped
			}
			return execResult{}, diag.Execution(line, "Pas à pas interrompu: %v", err)
		}
	}
	if err := in.checkStopped(ctx); err != nil {
		return execResult{}, err
	}
	if in.log.Enabled(ctx, slog.LevelDebug) {
		in.log.Debug("statement", "line", line, "kind", fmt.Sprintf("%T", stmt), "depth", in.mem.Load().depth())
	}

	switch s := stmt.(type) {
	case *ast.Assignment:
		return execResult{}, in.execAssignment(ctx, s)
	case *ast.PrintStmt:
		return execResult{}, in.execPrint(ctx, s)
	case *ast.ReadStmt:
		return execResult{}, in.execRead(ctx, s)
	case *ast.IfStmt:
		return in.execIf(ctx, s)
	case *ast.WhileStmt:
		return in.execWhile(ctx, s)
	case *ast.ForStmt:
		return in.execFor(ctx, s)
	case *ast.ReturnStmt:
		v, err := in.evalExpr(ctx, s.Value)
		if err != nil {
			return execResult{}, err
		}
		return execResult{kind: resultReturn, value: v}, nil
	case *ast.CallExpr:
		_, err := in.callFunction(ctx, s)
		return execResult{}, err
	}
	return execResult{}, diag.Execution(line, "Instruction non supportée: %T", stmt)
}

func (in *Interpreter) execAssignment(ctx context.Context, s *ast.Assignment) error {
	value, err := in.evalExpr(ctx, s.Value)
	if err != nil {
		return err
	}
	mem := in.mem.Load()

	switch target := s.Target.(type) {
	case *ast.ArrayAccess:
		name := target.Array.Name
		idx, err := in.evalExpr(ctx, target.Index)
		if err != nil {
			return err
		}
		_, arr, ok := mem.get(name)
		if !ok {
			return diag.Semantic(s.Line, "Variable '%s' non déclarée", name)
		}
		if err := in.setElement(name, arr, idx, value, s.Line); err != nil {
			return err
		}
	case *ast.Identifier:
		typ, _, ok := mem.get(target.Name)
		if !ok {
			return diag.Semantic(s.Line, "Variable '%s' non déclarée", target.Name)
		}
		if err := checkAssignable(typ, value, target.Name, s.Line); err != nil {
			return err
		}
		mem.set(target.Name, value)
	}
	in.notifyMemory()
	return nil
}

// checkAssignable rejects values that do not fit the declared type. UNKNOWN
// accepts anything.
func checkAssignable(typ ast.DataType, v Value, name string, line int) error {
	switch typ {
	case ast.Integer, ast.Real:
		if v.Kind() != NumberKind {
			return diag.Type(line, "La variable '%s' attend un %s", name, typ)
		}
	case ast.Boolean:
		if v.Kind() != BoolKind {
			return diag.Type(line, "La variable '%s' attend un BOOLEEN", name)
		}
	case ast.String, ast.Character:
		if v.Kind() != TextKind {
			return diag.Type(line, "La variable '%s' attend une CHAINE", name)
		}
	case ast.Array, ast.List:
		if v.Kind() != ListKind {
			return diag.Type(line, "La variable '%s' attend un %s", name, typ)
		}
	}
	return nil
}

func (in *Interpreter) execPrint(ctx context.Context, s *ast.PrintStmt) error {
	parts := make([]string, 0, len(s.Args))
	for _, arg := range s.Args {
		v, err := in.evalExpr(ctx, arg)
		if err != nil {
			return err
		}
		parts = append(parts, v.String())
	}
	in.emit(strings.Join(parts, " "))
	return nil
}

func (in *Interpreter) execRead(ctx context.Context, s *ast.ReadStmt) error {
	name := s.Target.Name
	mem := in.mem.Load()
	typ, _, ok := mem.get(name)
	if !ok {
		return diag.Semantic(s.Line, "Variable '%s' non déclarée", name)
	}
	if typ.IsSequence() {
		return diag.Type(s.Line, "Impossible de lire une valeur dans le tableau '%s'", name)
	}
	if in.cb.OnInput == nil {
		return diag.Execution(s.Line, "Aucune entrée disponible pour '%s'", name)
	}

	raw, err := in.cb.OnInput(ctx, name)
	if stopErr := in.checkStopped(ctx); stopErr != nil {
		return stopErr
	}
	if err != nil {
		return diag.Execution(s.Line, "Lecture de '%s' impossible: %v", name, err)
	}

	var v Value
	switch typ {
	case ast.Integer:
		n, ok := parseLeadingInt(raw)
		if !ok {
			return diag.Type(s.Line, "Entrée invalide pour ENTIER: '%s'", raw)
		}
		v = Number(n)
	case ast.Real:
		n, ok := parseLeadingFloat(raw)
		if !ok {
			return diag.Type(s.Line, "Entrée invalide pour REEL: '%s'", raw)
		}
		v = Number(n)
	case ast.Boolean:
		v = Bool(parseBoolInput(raw))
	default:
		v = Text(raw)
	}
	mem.set(name, v)
	in.notifyMemory()
	return nil
}

func (in *Interpreter) execIf(ctx context.Context, s *ast.IfStmt) (execResult, error) {
	cond, err := in.evalExpr(ctx, s.Cond)
	if err != nil {
		return execResult{}, err
	}
	if cond.Truthy() {
		return in.execBlock(ctx, s.Then)
	}
	if s.HasElse {
		return in.execBlock(ctx, s.Else)
	}
	return execResult{}, nil
}

func (in *Interpreter) execWhile(ctx context.Context, s *ast.WhileStmt) (execResult, error) {
	iterations := 0
	for {
		if err := in.checkStopped(ctx); err != nil {
			return execResult{}, err
		}
		cond, err := in.evalExpr(ctx, s.Cond)
		if err != nil {
			return execResult{}, err
		}
		if !cond.Truthy() {
			return execResult{}, nil
		}
		res, err := in.execBlock(ctx, s.Body)
		if err != nil || res.kind == resultReturn {
			return res, err
		}
		iterations++
		if iterations > in.maxIterations {
			return execResult{}, diag.Execution(s.Line, "Boucle infinie détectée (> %d itérations)", in.maxIterations)
		}
	}
}

func (in *Interpreter) execFor(ctx context.Context, s *ast.ForStmt) (execResult, error) {
	start, err := in.evalExpr(ctx, s.Start)
	if err != nil {
		return execResult{}, err
	}
	end, err := in.evalExpr(ctx, s.End)
	if err != nil {
		return execResult{}, err
	}
	step := Number(1)
	if s.Step != nil {
		if step, err = in.evalExpr(ctx, s.Step); err != nil {
			return execResult{}, err
		}
	}
	if start.Kind() != NumberKind || end.Kind() != NumberKind || step.Kind() != NumberKind {
		return execResult{}, diag.Type(s.Line, "Les bornes de la boucle POUR doivent être des nombres")
	}
	from, to, by := start.Num(), end.Num(), step.Num()
	if by == 0 {
		return execResult{}, diag.Execution(s.Line, "Le pas de la boucle POUR ne peut pas être nul")
	}

	mem := in.mem.Load()
	typ, _, ok := mem.get(s.Var)
	switch {
	case !ok:
		mem.define(s.Var, ast.Integer, Number(from))
	case typ != ast.Unknown && !typ.IsNumeric():
		return execResult{}, diag.Type(s.Line, "La variable de boucle '%s' doit être numérique", s.Var)
	}

	if n := math.Abs((to-from)/by) + 1; n > float64(in.maxIterations) {
		return execResult{}, diag.Execution(s.Line, "Boucle trop longue (> %d itérations)", in.maxIterations)
	}

	for i := from; (by > 0 && i <= to) || (by < 0 && i >= to); i += by {
		if err := in.checkStopped(ctx); err != nil {
			return execResult{}, err
		}
		mem.set(s.Var, Number(i))
		in.notifyMemory()
		res, err := in.execBlock(ctx, s.Body)
		if err != nil || res.kind == resultReturn {
			return res, err
		}
	}
	return execResult{}, nil
}
