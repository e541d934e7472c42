package parser

import (
	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/lexer"
)

// parseStatement dispatches on the first token. It returns a nil statement
// (and consumes one token) for anything it does not recognize.
func (p *parser) parseStatement() (ast.Statement, error) {
	p.skipNewlines()
	if p.atEnd() {
		return nil, nil
	}
	t := p.cur()
	if t.Kind == lexer.Keyword {
		switch t.Text {
		case "AFFICHER":
			return p.parsePrint()
		case "LIRE":
			return p.parseRead()
		case "SI":
			return p.parseIf()
		case "TANT":
			return p.parseWhile()
		case "POUR":
			return p.parseFor()
		case "RETOURNER":
			return p.parseReturn()
		}
	}
	if t.Kind == lexer.Identifier {
		switch p.peek(1).Kind {
		case lexer.LBracket, lexer.Assign:
			return p.parseAssignment()
		case lexer.LParen:
			p.advance()
			p.advance()
			return p.parseCallArgs(t.Text, t.Line)
		}
	}
	p.advance()
	return nil, nil
}

func (p *parser) parseAssignment() (ast.Statement, error) {
	name := p.advance()
	line := name.Line
	var target ast.Target = &ast.Identifier{Name: name.Text, Line: line}
	if p.at(lexer.LBracket) {
		p.advance()
		idx, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(line, "Attendu ']' pour fermer l'accès au tableau", lexer.RBracket); err != nil {
			return nil, err
		}
		target = &ast.ArrayAccess{Array: &ast.Identifier{Name: name.Text, Line: line}, Index: idx, Line: line}
	}
	if _, err := p.expect(line, "Attendu '←' pour l'affectation", lexer.Assign); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{Target: target, Value: value, Line: line}, nil
}

func (p *parser) parsePrint() (ast.Statement, error) {
	line := p.advance().Line
	if _, err := p.expect(line, "Attendu '(' après AFFICHER", lexer.LParen); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if !p.at(lexer.RParen) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.at(lexer.Comma) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(line, "Attendu ')' après les arguments de AFFICHER", lexer.RParen); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{Args: args, Line: line}, nil
}

func (p *parser) parseRead() (ast.Statement, error) {
	line := p.advance().Line
	if _, err := p.expect(line, "Attendu '(' après LIRE", lexer.LParen); err != nil {
		return nil, err
	}
	name, err := p.expect(line, "Attendu un nom de variable dans LIRE", lexer.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(line, "Attendu ')' après la variable dans LIRE", lexer.RParen); err != nil {
		return nil, err
	}
	return &ast.ReadStmt{Target: &ast.Identifier{Name: name.Text, Line: line}, Line: line}, nil
}

func (p *parser) parseIf() (ast.Statement, error) {
	line := p.advance().Line
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(line, "Attendu 'ALORS' après la condition SI", lexer.Keyword, "ALORS"); err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Cond: cond, Line: line}
	if stmt.Then, err = p.parseBlock("SINON", "FINSI"); err != nil {
		return nil, err
	}
	if p.at(lexer.Keyword, "SINON") {
		p.advance()
		stmt.HasElse = true
		if stmt.Else, err = p.parseBlock("FINSI"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(line, "Attendu 'FINSI' pour fermer la condition SI", lexer.Keyword, "FINSI"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseWhile() (ast.Statement, error) {
	line := p.advance().Line
	if _, err := p.expect(line, "Attendu 'QUE' après 'TANT'", lexer.Keyword, "QUE"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(line, "Attendu 'FAIRE' après la condition TANT QUE", lexer.Keyword, "FAIRE"); err != nil {
		return nil, err
	}
	stmt := &ast.WhileStmt{Cond: cond, Line: line}
	if stmt.Body, err = p.parseBlock(lexer.WhileEnd); err != nil {
		return nil, err
	}
	if _, err := p.expect(line, "Attendu 'FIN TANT QUE' pour fermer la boucle TANT QUE", lexer.Keyword, lexer.WhileEnd); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseFor() (ast.Statement, error) {
	line := p.advance().Line
	name, err := p.expect(line, "Attendu un nom de variable après POUR", lexer.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(line, "Attendu '←' après la variable dans POUR", lexer.Assign); err != nil {
		return nil, err
	}
	stmt := &ast.ForStmt{Var: name.Text, Line: line}
	if stmt.Start, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if _, err := p.expect(line, "Attendu 'A' après la valeur initiale dans POUR", lexer.Keyword, "A"); err != nil {
		return nil, err
	}
	if stmt.End, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if p.at(lexer.Keyword, "PAS") {
		p.advance()
		if stmt.Step, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(line, "Attendu 'FAIRE' après la boucle POUR", lexer.Keyword, "FAIRE"); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseBlock("FINPOUR"); err != nil {
		return nil, err
	}
	if _, err := p.expect(line, "Attendu 'FINPOUR' pour fermer la boucle POUR", lexer.Keyword, "FINPOUR"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseReturn() (ast.Statement, error) {
	line := p.advance().Line
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: value, Line: line}, nil
}
