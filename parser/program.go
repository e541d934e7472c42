package parser

import (
	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/lexer"
)

// Parse tokenizes and parses src. Any structural violation aborts with a
// *diag.Error of kind parse; no partial program is returned.
func Parse(src string) (*ast.Program, error) {
	return ParseTokens(lexer.Tokenize(src))
}

// ParseTokens parses an already tokenized source. toks must end with EOF.
func ParseTokens(toks []lexer.Token) (*ast.Program, error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != lexer.EOF {
		toks = append(toks, lexer.Token{Kind: lexer.EOF, Line: 1, Column: 1})
	}
	p := &parser{toks: toks}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return prog, nil
}

func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{Name: lexer.DefaultName, Line: p.cur().Line}

	p.skipNewlines()
	if p.at(lexer.Keyword, "ALGORITHME") {
		p.advance()
		p.skipNewlines()
		if p.at(lexer.Identifier) {
			prog.Name = p.advance().Text
		}
	}

	p.skipNewlines()
	if p.at(lexer.Keyword, "VARIABLES") {
		p.advance()
		p.skipNewlines()
		for !p.at(lexer.Keyword, "DEBUT", "FONCTION") && !p.atEnd() {
			decls, err := p.parseDeclarationLine()
			if err != nil {
				return nil, err
			}
			prog.Variables = append(prog.Variables, decls...)
			p.skipNewlines()
		}
	}

	for p.at(lexer.Keyword, "FONCTION") {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
		p.skipNewlines()
	}

	if !p.at(lexer.Keyword, "DEBUT") {
		return nil, p.errorf(p.cur().Line, "Attendu 'DEBUT' pour commencer le programme, trouvé %s", describe(p.cur()))
	}
	line := p.advance().Line
	body, err := p.parseBlock("FIN")
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.Keyword, "FIN") {
		return nil, p.errorf(line, "Attendu 'FIN' pour terminer le programme")
	}
	p.advance()
	prog.Body = body
	return prog, nil
}

// parseBlock collects statements until one of the closing keywords or EOF.
// The closer itself is left for the caller.
func (p *parser) parseBlock(closers ...string) ([]ast.Statement, error) {
	p.skipNewlines()
	var stmts []ast.Statement
	for !p.at(lexer.Keyword, closers...) && !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.skipNewlines()
	}
	return stmts, nil
}
