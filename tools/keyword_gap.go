package main

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"

	"github.com/gosuda/algofr/lexer"
	aruntime "github.com/gosuda/algofr/runtime"
)

// keyword_gap compares the words a reference document names in backquotes
// with the keywords and builtins the engine knows. -w regenerates the
// document instead.
func main() {
	opts, optind, err := getopt.Getopts(os.Args, "wh")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	write := false
	for _, opt := range opts {
		switch opt.Option {
		case 'w':
			write = true
		default: // case 'h':
			fmt.Print("usage: keyword_gap [-w] [REFERENCE.md]\n")
			os.Exit(1)
		}
	}
	docPath := "REFERENCE.md"
	if optind < len(os.Args) {
		docPath = os.Args[optind]
	}

	keywords := sorted(lexer.Keywords())
	builtins := aruntime.BuiltinNames()

	if write {
		if err := os.WriteFile(docPath, []byte(render(keywords, builtins)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write reference: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s: %d keywords, %d builtins\n", docPath, len(keywords), len(builtins))
		return
	}

	documented, err := extractDocumented(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read reference: %v\n", err)
		os.Exit(1)
	}
	known := map[string]struct{}{}
	for _, n := range keywords {
		known[n] = struct{}{}
	}
	for _, n := range builtins {
		known[n] = struct{}{}
	}

	missing := diff(known, documented)
	extra := diff(documented, known)

	fmt.Printf("engine word count: %d\n", len(known))
	fmt.Printf("documented word count: %d\n", len(documented))
	fmt.Printf("undocumented: %d\n", len(missing))
	for _, n := range missing {
		fmt.Println("  - " + n)
	}
	fmt.Printf("unknown to the engine: %d\n", len(extra))
	for _, n := range extra {
		fmt.Println("  + " + n)
	}
	if len(missing) > 0 || len(extra) > 0 {
		os.Exit(1)
	}
}

func render(keywords, builtins []string) string {
	var b strings.Builder
	b.WriteString("# Référence\n\n## Mots-clés\n\n")
	for _, k := range keywords {
		fmt.Fprintf(&b, "- `%s`\n", k)
	}
	b.WriteString("\n## Fonctions prédéfinies\n\n")
	for _, n := range builtins {
		fmt.Fprintf(&b, "- `%s`\n", n)
	}
	return b.String()
}

func extractDocumented(path string) (map[string]struct{}, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile("`([A-Z][A-Z ]*)`")
	set := map[string]struct{}{}
	for _, m := range re.FindAllStringSubmatch(string(b), -1) {
		set[m[1]] = struct{}{}
	}
	return set, nil
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func diff(base, comp map[string]struct{}) []string {
	out := make([]string, 0)
	for n := range base {
		if _, ok := comp[n]; !ok {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
