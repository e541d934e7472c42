package parser

import (
	"fmt"

	"github.com/gosuda/algofr/diag"
	"github.com/gosuda/algofr/lexer"
)

type parser struct {
	toks  []lexer.Token
	pos   int
	depth int
}

func (p *parser) cur() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) peek(off int) lexer.Token {
	if p.pos+off < len(p.toks) {
		return p.toks[p.pos+off]
	}
	return p.toks[len(p.toks)-1]
}

// advance returns the current token and moves on; EOF is never passed.
func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) at(k lexer.Kind, text ...string) bool {
	return p.cur().Is(k, text...)
}

func (p *parser) atEnd() bool {
	return p.cur().Kind == lexer.EOF
}

func (p *parser) skipNewlines() {
	for p.at(lexer.Newline) {
		p.advance()
	}
}

func (p *parser) skipLine() {
	for !p.atEnd() && !p.at(lexer.Newline) {
		p.advance()
	}
	p.skipNewlines()
}

// expect consumes a token of kind k (and text, when given) or fails with msg.
func (p *parser) expect(line int, msg string, k lexer.Kind, text ...string) (lexer.Token, error) {
	if !p.at(k, text...) {
		return lexer.Token{}, p.errorf(line, "%s", msg)
	}
	return p.advance(), nil
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return diag.Parse(line, format, args...)
}

func describe(t lexer.Token) string {
	switch t.Kind {
	case lexer.EOF:
		return "la fin du texte"
	case lexer.Newline:
		return "une fin de ligne"
	default:
		return fmt.Sprintf("'%s'", t.Text)
	}
}
