package parser

import (
	"strconv"

	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/lexer"
)

const maxExprDepth = 256

// binaryPrecedence returns the binding power of t as a binary operator, or 0.
func binaryPrecedence(t lexer.Token) int {
	switch t.Kind {
	case lexer.Keyword:
		switch t.Text {
		case "OU":
			return 1
		case "ET":
			return 2
		case "MOD", "DIV":
			return 5
		}
	case lexer.Comparison:
		return 3
	case lexer.Operator:
		switch t.Text {
		case "+", "-":
			return 4
		case "*", "/":
			return 5
		case "^":
			return 6
		}
	}
	return 0
}

func rightAssoc(op string) bool {
	return op == "^"
}

func (p *parser) parseExpression() (ast.Expr, error) {
	return p.parseBinary(1)
}

func (p *parser) parseBinary(minPrec int) (ast.Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxExprDepth {
		return nil, p.errorf(p.cur().Line, "Expression trop imbriquée près de %s", describe(p.cur()))
	}

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		prec := binaryPrecedence(tok)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		p.advance()
		next := prec + 1
		if rightAssoc(tok.Text) {
			next = prec
		}
		right, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: tok.Text, Left: left, Right: right, Line: tok.Line}
	}
}

// parseUnary binds NON and negation tighter than any binary operator, so
// -2^2 reads as (-2)^2.
func (p *parser) parseUnary() (ast.Expr, error) {
	t := p.cur()
	if t.Is(lexer.Keyword, "NON") || t.Is(lexer.Operator, "-") {
		p.advance()
		p.depth++
		operand, err := p.parseUnary()
		p.depth--
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: t.Text, Operand: operand, Line: t.Line}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	line := t.Line
	switch {
	case t.Kind == lexer.Number:
		p.advance()
		v, _ := strconv.ParseFloat(t.Text, 64)
		return &ast.NumberLit{Value: v, Line: line}, nil
	case t.Kind == lexer.String:
		p.advance()
		return &ast.StringLit{Value: t.Text, Line: line}, nil
	case t.Is(lexer.Keyword, "VRAI", "FAUX"):
		p.advance()
		return &ast.BoolLit{Value: t.Text == "VRAI", Line: line}, nil
	case t.Kind == lexer.LParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(line, "Attendu ')' pour fermer la parenthèse", lexer.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	case t.Is(lexer.Keyword, "ENTIER") && p.peek(1).Kind == lexer.LParen:
		p.advance()
		p.advance()
		return p.parseCallArgs(t.Text, line)
	case t.Kind == lexer.Identifier:
		p.advance()
		switch {
		case p.at(lexer.LParen):
			p.advance()
			return p.parseCallArgs(t.Text, line)
		case p.at(lexer.LBracket):
			p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(line, "Attendu ']' pour fermer l'accès au tableau", lexer.RBracket); err != nil {
				return nil, err
			}
			return &ast.ArrayAccess{Array: &ast.Identifier{Name: t.Text, Line: line}, Index: idx, Line: line}, nil
		}
		return &ast.Identifier{Name: t.Text, Line: line}, nil
	}
	return nil, p.errorf(line, "Expression inattendue: %s", describe(t))
}

// parseCallArgs reads `args)` after the opening parenthesis.
func (p *parser) parseCallArgs(name string, line int) (*ast.CallExpr, error) {
	call := &ast.CallExpr{Name: name, Line: line}
	if !p.at(lexer.RParen) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if !p.at(lexer.Comma) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(line, "Attendu ')' après les arguments de '"+name+"'", lexer.RParen); err != nil {
		return nil, err
	}
	return call, nil
}
