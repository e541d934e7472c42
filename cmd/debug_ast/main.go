package main

import (
	"fmt"
	"log"
	"os"

	"git.sr.ht/~sircmpwn/getopt"

	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/diag"
	"github.com/gosuda/algofr/lexer"
	"github.com/gosuda/algofr/parser"
)

func main() {
	opts, optind, err := getopt.Getopts(os.Args, "Th")
	if err != nil {
		log.Fatalln(err)
	}
	tokens := false
	for _, opt := range opts {
		switch opt.Option {
		case 'T':
			tokens = true
		default: // case 'h':
			fmt.Print("usage: debug_ast [-T] file.algo\n" +
				"\n" +
				"  -T     print the token stream before the tree\n",
			)
			os.Exit(1)
		}
	}
	args := os.Args[optind:]
	if len(args) != 1 {
		log.Fatalln("expected one source file")
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalln(err)
	}

	toks := lexer.Tokenize(string(b))
	if tokens {
		for _, t := range toks {
			fmt.Printf("%4d:%-3d %-11s %q\n", t.Line, t.Column, t.Kind, t.Text)
		}
		fmt.Println()
	}
	prog, err := parser.ParseTokens(toks)
	if err != nil {
		if de, ok := diag.As(err); ok {
			fmt.Fprintln(os.Stderr, diag.Format(de))
			os.Exit(1)
		}
		log.Fatalln(err)
	}
	if err := ast.Dump(os.Stdout, prog); err != nil {
		log.Fatalln(err)
	}
}
