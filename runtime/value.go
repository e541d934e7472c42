package aruntime

import (
	"math"
	"strconv"
	"strings"
)

type ValueKind int

const (
	NullKind ValueKind = iota
	NumberKind
	TextKind
	BoolKind
	ListKind
)

var valueKindNames = [...]string{
	NullKind:   "null",
	NumberKind: "nombre",
	TextKind:   "texte",
	BoolKind:   "booléen",
	ListKind:   "tableau",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "inconnu"
}

// Value is a runtime value. Lists share their backing store between copies,
// so an element write through one name is visible through every alias.
type Value struct {
	kind ValueKind
	n    float64
	s    string
	b    bool
	list *list
}

type list struct {
	elems []Value
}

func Null() Value {
	return Value{}
}

func Number(v float64) Value {
	return Value{kind: NumberKind, n: v}
}

func Text(v string) Value {
	return Value{kind: TextKind, s: v}
}

func Bool(v bool) Value {
	return Value{kind: BoolKind, b: v}
}

// List builds a list value over a fresh copy of elems.
func List(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: ListKind, list: &list{elems: cp}}
}

func zeroList(size int) Value {
	if size < 0 {
		size = 0
	}
	elems := make([]Value, size)
	for i := range elems {
		elems[i] = Number(0)
	}
	return Value{kind: ListKind, list: &list{elems: elems}}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == NullKind
}

func (v Value) Num() float64 {
	return v.n
}

func (v Value) Str() string {
	return v.s
}

func (v Value) Boolean() bool {
	return v.b
}

// Elems returns the list's backing slice; callers must not append to it.
func (v Value) Elems() []Value {
	if v.list == nil {
		return nil
	}
	return v.list.elems
}

func (v Value) Len() int {
	return len(v.Elems())
}

// Truthy applies the condition rule: null is false, numbers are false at
// zero, text is false when empty, lists are always true.
func (v Value) Truthy() bool {
	switch v.kind {
	case NullKind:
		return false
	case BoolKind:
		return v.b
	case NumberKind:
		return v.n != 0
	case TextKind:
		return v.s != ""
	}
	return true
}

// String renders v the way AFFICHER prints it.
func (v Value) String() string {
	switch v.kind {
	case NullKind:
		return "null"
	case NumberKind:
		return FormatNumber(v.n)
	case TextKind:
		return v.s
	case BoolKind:
		if v.b {
			return "VRAI"
		}
		return "FAUX"
	case ListKind:
		parts := make([]string, len(v.list.elems))
		for i, e := range v.list.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

// concatText renders v as an operand of text '+'. Booleans keep their
// lower-case English spelling and lists join their elements with commas,
// empty for null elements.
func (v Value) concatText() string {
	switch v.kind {
	case BoolKind:
		if v.b {
			return "true"
		}
		return "false"
	case ListKind:
		parts := make([]string, len(v.list.elems))
		for i, e := range v.list.elems {
			if !e.IsNull() {
				parts[i] = e.concatText()
			}
		}
		return strings.Join(parts, ",")
	}
	return v.String()
}

// Equal compares by kind and value; lists compare element-wise.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case NullKind:
		return true
	case NumberKind:
		return v.n == o.n
	case TextKind:
		return v.s == o.s
	case BoolKind:
		return v.b == o.b
	case ListKind:
		if v.list == o.list {
			return true
		}
		a, b := v.list.elems, o.list.elems
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone deep-copies lists so the result shares nothing with v.
func (v Value) Clone() Value {
	if v.kind != ListKind {
		return v
	}
	elems := make([]Value, len(v.list.elems))
	for i, e := range v.list.elems {
		elems[i] = e.Clone()
	}
	return Value{kind: ListKind, list: &list{elems: elems}}
}

// Interface converts v to plain Go values for JSON bridges.
func (v Value) Interface() any {
	switch v.kind {
	case NumberKind:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return FormatNumber(v.n)
		}
		return v.n
	case TextKind:
		return v.s
	case BoolKind:
		return v.b
	case ListKind:
		out := make([]any, len(v.list.elems))
		for i, e := range v.list.elems {
			out[i] = e.Interface()
		}
		return out
	}
	return nil
}

// FormatNumber follows JavaScript's Number#toString: integers have no
// fraction and exponent notation is used outside [1e-6, 1e21).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		exp = strings.TrimLeft(exp[1:], "0")
		if exp == "" {
			exp = "0"
		}
		return mant + "e" + sign + exp
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
