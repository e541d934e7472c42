package aruntime

import (
	"context"
	"math"

	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/diag"
)

func (in *Interpreter) evalExpr(ctx context.Context, e ast.Expr) (Value, error) {
	switch ex := e.(type) {
	case *ast.NumberLit:
		return Number(ex.Value), nil
	case *ast.StringLit:
		return Text(ex.Value), nil
	case *ast.BoolLit:
		return Bool(ex.Value), nil
	case *ast.Identifier:
		_, v, ok := in.mem.Load().get(ex.Name)
		if !ok {
			return Value{}, diag.Semantic(ex.Line, "Variable '%s' non déclarée", ex.Name)
		}
		return v, nil
	case *ast.ArrayAccess:
		name := ex.Array.Name
		_, arr, ok := in.mem.Load().get(name)
		if !ok {
			return Value{}, diag.Semantic(ex.Line, "Tableau '%s' non déclaré", name)
		}
		if arr.Kind() != ListKind {
			return Value{}, diag.Type(ex.Line, "'%s' n'est pas un tableau", name)
		}
		idx, err := in.evalExpr(ctx, ex.Index)
		if err != nil {
			return Value{}, err
		}
		return in.getElement(name, arr, idx, ex.Line)
	case *ast.UnaryExpr:
		v, err := in.evalExpr(ctx, ex.Operand)
		if err != nil {
			return Value{}, err
		}
		switch ex.Op {
		case "-":
			if v.Kind() != NumberKind {
				return Value{}, diag.Type(ex.Line, "L'opérateur '-' attend un nombre")
			}
			return Number(-v.Num()), nil
		case "NON":
			return Bool(!v.Truthy()), nil
		}
		return Value{}, diag.Execution(ex.Line, "Opérateur unaire '%s' non supporté", ex.Op)
	case *ast.BinaryExpr:
		// ET and OU evaluate both operands, like every other operator.
		left, err := in.evalExpr(ctx, ex.Left)
		if err != nil {
			return Value{}, err
		}
		right, err := in.evalExpr(ctx, ex.Right)
		if err != nil {
			return Value{}, err
		}
		v, err := evalBinary(ex.Op, left, right, ex.Line)
		if err == nil && v.Kind() == TextKind && len(v.Str()) > in.maxTextLength {
			return Value{}, diag.Execution(ex.Line, "Chaîne trop longue: plus de %d octets", in.maxTextLength)
		}
		return v, err
	case *ast.CallExpr:
		return in.callFunction(ctx, ex)
	}
	return Value{}, diag.Execution(e.Pos(), "Expression non supportée: %T", e)
}

func evalBinary(op string, left, right Value, line int) (Value, error) {
	switch op {
	case "+":
		if left.Kind() == TextKind || right.Kind() == TextKind {
			return Text(left.concatText() + right.concatText()), nil
		}
		if left.Kind() == NumberKind && right.Kind() == NumberKind {
			return Number(left.Num() + right.Num()), nil
		}
		return Value{}, diag.Type(line, "L'opérateur '+' attend des nombres ou du texte, reçu %s et %s", left.Kind(), right.Kind())
	case "-", "*", "/", "^", "MOD", "DIV":
		if left.Kind() != NumberKind || right.Kind() != NumberKind {
			return Value{}, diag.Type(line, "L'opérateur '%s' attend deux nombres, reçu %s et %s", op, left.Kind(), right.Kind())
		}
		return arith(op, left.Num(), right.Num(), line)
	case "=":
		return Bool(left.Equal(right)), nil
	case "<>", "!=":
		return Bool(!left.Equal(right)), nil
	case "<", ">", "<=", ">=":
		return compare(op, left, right, line)
	case "ET":
		return Bool(left.Truthy() && right.Truthy()), nil
	case "OU":
		return Bool(left.Truthy() || right.Truthy()), nil
	}
	return Value{}, diag.Execution(line, "Opérateur '%s' non supporté", op)
}

func arith(op string, a, b float64, line int) (Value, error) {
	switch op {
	case "-":
		return Number(a - b), nil
	case "*":
		return Number(a * b), nil
	case "^":
		return Number(math.Pow(a, b)), nil
	case "/":
		if b == 0 {
			return Value{}, diag.Execution(line, "Division par zéro")
		}
		return Number(a / b), nil
	case "DIV":
		if b == 0 {
			return Value{}, diag.Execution(line, "Division entière par zéro")
		}
		return Number(math.Floor(a / b)), nil
	case "MOD":
		if b == 0 {
			return Value{}, diag.Execution(line, "Modulo par zéro")
		}
		return Number(math.Mod(a, b)), nil
	}
	return Value{}, diag.Execution(line, "Opérateur '%s' non supporté", op)
}

// compare orders two numbers or two texts; anything else is a type error.
func compare(op string, left, right Value, line int) (Value, error) {
	var c int
	switch {
	case left.Kind() == NumberKind && right.Kind() == NumberKind:
		a, b := left.Num(), right.Num()
		if math.IsNaN(a) || math.IsNaN(b) {
			return Bool(false), nil
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	case left.Kind() == TextKind && right.Kind() == TextKind:
		switch {
		case left.Str() < right.Str():
			c = -1
		case left.Str() > right.Str():
			c = 1
		}
	default:
		return Value{}, diag.Type(line, "Comparaison '%s' impossible entre %s et %s", op, left.Kind(), right.Kind())
	}
	switch op {
	case "<":
		return Bool(c < 0), nil
	case ">":
		return Bool(c > 0), nil
	case "<=":
		return Bool(c <= 0), nil
	}
	return Bool(c >= 0), nil
}
