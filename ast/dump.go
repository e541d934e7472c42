package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes an indented, line-annotated rendering of n to w.
func Dump(w io.Writer, n Node) error {
	d := &dumper{w: w}
	d.node(n, 0)
	return d.err
}

// DumpString is Dump into a string.
func DumpString(n Node) string {
	var b strings.Builder
	_ = Dump(&b, n)
	return b.String()
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) printf(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, strings.Repeat("  ", depth)+format+"\n", args...)
}

func (d *dumper) block(label string, stmts []Statement, depth int) {
	d.printf(depth, "%s:", label)
	for _, s := range stmts {
		d.node(s, depth+1)
	}
}

func (d *dumper) node(n Node, depth int) {
	switch v := n.(type) {
	case *Program:
		d.printf(depth, "Program %s @%d", v.Name, v.Line)
		for _, decl := range v.Variables {
			d.node(decl, depth+1)
		}
		for _, fn := range v.Functions {
			d.node(fn, depth+1)
		}
		d.block("Body", v.Body, depth+1)
	case VariableDeclaration:
		if v.Size >= 0 {
			d.printf(depth, "Var %s : %s[%d] @%d", v.Name, v.Type, v.Size, v.Line)
		} else {
			d.printf(depth, "Var %s : %s @%d", v.Name, v.Type, v.Line)
		}
	case *FunctionDecl:
		params := make([]string, 0, len(v.Params))
		for _, p := range v.Params {
			params = append(params, p.Name+" : "+string(p.Type))
		}
		d.printf(depth, "Function %s(%s) : %s @%d", v.Name, strings.Join(params, ", "), v.ReturnType, v.Line)
		d.block("Body", v.Body, depth+1)
	case *Assignment:
		d.printf(depth, "Assign @%d", v.Line)
		d.node(v.Target, depth+1)
		d.node(v.Value, depth+1)
	case *IfStmt:
		d.printf(depth, "If @%d", v.Line)
		d.node(v.Cond, depth+1)
		d.block("Then", v.Then, depth+1)
		if v.HasElse {
			d.block("Else", v.Else, depth+1)
		}
	case *WhileStmt:
		d.printf(depth, "While @%d", v.Line)
		d.node(v.Cond, depth+1)
		d.block("Body", v.Body, depth+1)
	case *ForStmt:
		d.printf(depth, "For %s @%d", v.Var, v.Line)
		d.node(v.Start, depth+1)
		d.node(v.End, depth+1)
		if v.Step != nil {
			d.node(v.Step, depth+1)
		}
		d.block("Body", v.Body, depth+1)
	case *ReturnStmt:
		d.printf(depth, "Return @%d", v.Line)
		d.node(v.Value, depth+1)
	case *PrintStmt:
		d.printf(depth, "Print @%d", v.Line)
		for _, a := range v.Args {
			d.node(a, depth+1)
		}
	case *ReadStmt:
		d.printf(depth, "Read %s @%d", v.Target.Name, v.Line)
	case *CallExpr:
		d.printf(depth, "Call %s @%d", v.Name, v.Line)
		for _, a := range v.Args {
			d.node(a, depth+1)
		}
	case *BinaryExpr:
		d.printf(depth, "Binary %s", v.Op)
		d.node(v.Left, depth+1)
		d.node(v.Right, depth+1)
	case *UnaryExpr:
		d.printf(depth, "Unary %s", v.Op)
		d.node(v.Operand, depth+1)
	case *Identifier:
		d.printf(depth, "Ident %s", v.Name)
	case *ArrayAccess:
		d.printf(depth, "Index %s", v.Array.Name)
		d.node(v.Index, depth+1)
	case *NumberLit:
		d.printf(depth, "Number %s", strconv.FormatFloat(v.Value, 'f', -1, 64))
	case *StringLit:
		d.printf(depth, "String %q", v.Value)
	case *BoolLit:
		d.printf(depth, "Bool %t", v.Value)
	default:
		d.printf(depth, "%T", n)
	}
}
