package aruntime

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/gosuda/algofr/diag"
)

type builtin struct {
	minArgs, maxArgs int
	fn               func(in *Interpreter, name string, args []Value, line int) (Value, error)
}

func unary(f func(float64) float64) builtin {
	return builtin{minArgs: 1, maxArgs: 1, fn: func(_ *Interpreter, name string, args []Value, line int) (Value, error) {
		x, err := numArg(name, args[0], line)
		if err != nil {
			return Value{}, err
		}
		return Number(f(x)), nil
	}}
}

var builtins = map[string]builtin{}

func init() {
	register(unary(math.Abs), "ABS")
	register(unary(math.Sqrt), "RACINE", "SQRT")
	register(unary(math.Floor), "ENTIER", "ENT")
	register(unary(func(x float64) float64 { return math.Floor(x + 0.5) }), "ARRONDI")
	register(unary(math.Sin), "SIN")
	register(unary(math.Cos), "COS")
	register(unary(math.Tan), "TAN")
	register(unary(math.Log), "LOG")
	register(unary(math.Exp), "EXP")
	register(builtin{minArgs: 1, maxArgs: 1, fn: length}, "LONGUEUR", "LEN")
	register(builtin{minArgs: 0, maxArgs: 2, fn: random}, "ALEATOIRE", "RANDOM")
	register(builtin{minArgs: 2, maxArgs: 2, fn: power}, "PUISSANCE", "POW")
}

func register(b builtin, names ...string) {
	for _, n := range names {
		builtins[n] = b
	}
}

// BuiltinNames lists the upper-case builtin names, sorted.
func BuiltinNames() []string {
	out := make([]string, 0, len(builtins))
	for n := range builtins {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (in *Interpreter) callBuiltin(name string, b builtin, args []Value, line int) (Value, error) {
	if len(args) < b.minArgs || len(args) > b.maxArgs {
		if b.minArgs == b.maxArgs {
			return Value{}, diag.Execution(line, "La fonction %s attend %d argument(s), reçu %d", name, b.minArgs, len(args))
		}
		return Value{}, diag.Execution(line, "La fonction %s attend entre %d et %d arguments, reçu %d", name, b.minArgs, b.maxArgs, len(args))
	}
	return b.fn(in, name, args, line)
}

func numArg(name string, v Value, line int) (float64, error) {
	if v.Kind() != NumberKind {
		return 0, diag.Type(line, "La fonction %s attend un nombre, reçu %s", name, v.Kind())
	}
	return v.Num(), nil
}

func length(_ *Interpreter, _ string, args []Value, line int) (Value, error) {
	switch v := args[0]; v.Kind() {
	case TextKind:
		return Number(float64(utf8.RuneCountInString(v.Str()))), nil
	case ListKind:
		return Number(float64(v.Len())), nil
	}
	return Value{}, diag.Type(line, "LONGUEUR attend une chaîne ou un tableau")
}

// random takes no argument for [0, 1), one for an integer in [0, max), two
// for an integer in [min, max].
func random(in *Interpreter, name string, args []Value, line int) (Value, error) {
	r := in.rng.Float64()
	switch len(args) {
	case 0:
		return Number(r), nil
	case 1:
		hi, err := numArg(name, args[0], line)
		if err != nil {
			return Value{}, err
		}
		return Number(math.Floor(r * hi)), nil
	}
	lo, err := numArg(name, args[0], line)
	if err != nil {
		return Value{}, err
	}
	hi, err := numArg(name, args[1], line)
	if err != nil {
		return Value{}, err
	}
	return Number(math.Floor(r*(hi-lo+1)) + lo), nil
}

func power(_ *Interpreter, name string, args []Value, line int) (Value, error) {
	base, err := numArg(name, args[0], line)
	if err != nil {
		return Value{}, err
	}
	exp, err := numArg(name, args[1], line)
	if err != nil {
		return Value{}, err
	}
	return Number(math.Pow(base, exp)), nil
}
