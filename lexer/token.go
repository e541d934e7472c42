package lexer

import (
	"fmt"
	"sort"
)

type Kind int

const (
	EOF Kind = iota
	Keyword
	Identifier
	Number
	String
	Assign
	Comparison
	Operator
	Colon
	Comma
	LParen
	RParen
	LBracket
	RBracket
	Newline
	Comment
)

var kindNames = [...]string{
	EOF:        "EOF",
	Keyword:    "KEYWORD",
	Identifier: "IDENTIFIER",
	Number:     "NUMBER",
	String:     "STRING",
	Assign:     "ASSIGN",
	Comparison: "COMPARISON",
	Operator:   "OPERATOR",
	Colon:      "COLON",
	Comma:      "COMMA",
	LParen:     "LPAREN",
	RParen:     "RPAREN",
	LBracket:   "LBRACKET",
	RBracket:   "RBRACKET",
	Newline:    "NEWLINE",
	Comment:    "COMMENT",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexeme. Keyword text is always upper case; the assignment
// arrow is always reported as "←" whichever spelling the source used.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%d %s %q", t.Line, t.Column, t.Kind, t.Text)
}

// Is reports whether t has kind k and, when text is given, that exact text.
func (t Token) Is(k Kind, text ...string) bool {
	if t.Kind != k {
		return false
	}
	if len(text) == 0 {
		return true
	}
	for _, s := range text {
		if t.Text == s {
			return true
		}
	}
	return false
}

const (
	WhileEnd    = "FIN TANT QUE"
	ArrowGlyph  = "←"
	ArrowASCII  = "<-"
	DefaultName = "Programme"
)

var keywords = map[string]struct{}{
	"ALGORITHME": {}, "VARIABLES": {}, "DEBUT": {}, "FIN": {},
	"SI": {}, "ALORS": {}, "SINON": {}, "FINSI": {},
	"TANT": {}, "QUE": {}, "FAIRE": {}, WhileEnd: {},
	"POUR": {}, "A": {}, "FINPOUR": {}, "PAS": {},
	"FONCTION": {}, "RETOURNER": {}, "FINFONCTION": {},
	"ENTIER": {}, "REEL": {}, "BOOLEEN": {}, "CHAINE": {}, "CARACTERE": {}, "TABLEAU": {}, "LISTE": {},
	"VRAI": {}, "FAUX": {},
	"ET": {}, "OU": {}, "NON": {},
	"MOD": {}, "DIV": {},
	"AFFICHER": {}, "LIRE": {},
}

// accented spellings accepted for canonical keywords
var keywordAliases = map[string]string{
	"DÉBUT":     "DEBUT",
	"RÉEL":      "REEL",
	"BOOLÉEN":   "BOOLEEN",
	"CHAÎNE":    "CHAINE",
	"CARACTÈRE": "CARACTERE",
	"À":         "A",
}

// two-word closers folded after FIN
var finSuffixes = map[string]string{
	"SI":       "FINSI",
	"POUR":     "FINPOUR",
	"FONCTION": "FINFONCTION",
}

// LookupKeyword returns the canonical keyword for word, if it is one.
func LookupKeyword(word string) (string, bool) {
	if canon, ok := keywordAliases[word]; ok {
		return canon, true
	}
	_, ok := keywords[word]
	return word, ok
}

// Keywords lists the canonical keyword set, sorted.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
