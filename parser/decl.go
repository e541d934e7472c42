package parser

import (
	"strconv"

	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/lexer"
)

// parseDeclarationLine reads `a, b : TYPE[n]`. Lines that do not start with
// an identifier are skipped.
func (p *parser) parseDeclarationLine() ([]ast.VariableDeclaration, error) {
	line := p.cur().Line
	if !p.at(lexer.Identifier) {
		p.skipLine()
		return nil, nil
	}
	names := []string{p.advance().Text}
	for p.at(lexer.Comma) {
		p.advance()
		if !p.at(lexer.Identifier) {
			return nil, p.errorf(line, "Attendu un nom de variable après ','")
		}
		names = append(names, p.advance().Text)
	}
	if !p.at(lexer.Colon) {
		return nil, p.errorf(line, "Attendu ':' après le nom de variable '%s'", names[len(names)-1])
	}
	p.advance()

	dt := p.parseDataType()
	size := -1
	if p.at(lexer.LBracket) {
		p.advance()
		if p.at(lexer.Number) {
			f, _ := strconv.ParseFloat(p.advance().Text, 64)
			size = int(f)
		}
		if p.at(lexer.RBracket) {
			p.advance()
		}
	}

	decls := make([]ast.VariableDeclaration, 0, len(names))
	for _, name := range names {
		decls = append(decls, ast.VariableDeclaration{Name: name, Type: dt, Size: size, Line: line})
	}
	return decls, nil
}

// parseDataType reads a type keyword. Any other word is consumed and typed
// UNKNOWN; a missing type leaves the cursor alone.
func (p *parser) parseDataType() ast.DataType {
	t := p.cur()
	if t.Kind == lexer.Keyword {
		if dt, ok := ast.LookupDataType(t.Text); ok {
			p.advance()
			return dt
		}
	}
	if t.Kind == lexer.Identifier {
		p.advance()
	}
	return ast.Unknown
}

func (p *parser) parseFunction() (*ast.FunctionDecl, error) {
	line := p.advance().Line // FONCTION
	name, err := p.expect(line, "Attendu un nom de fonction après FONCTION", lexer.Identifier)
	if err != nil {
		return nil, err
	}
	fn := &ast.FunctionDecl{Name: name.Text, ReturnType: ast.Unknown, Line: line}
	if _, err := p.expect(line, "Attendu '(' après le nom de fonction", lexer.LParen); err != nil {
		return nil, err
	}
	if !p.at(lexer.RParen) {
		for {
			pname, err := p.expect(line, "Attendu un nom de paramètre", lexer.Identifier)
			if err != nil {
				return nil, err
			}
			param := ast.Param{Name: pname.Text, Type: ast.Unknown}
			if p.at(lexer.Colon) {
				p.advance()
				param.Type = p.parseDataType()
			}
			fn.Params = append(fn.Params, param)
			if !p.at(lexer.Comma) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(line, "Attendu ')' après les paramètres", lexer.RParen); err != nil {
		return nil, err
	}
	if p.at(lexer.Colon) {
		p.advance()
		fn.ReturnType = p.parseDataType()
	}
	p.skipNewlines()
	if _, err := p.expect(line, "Attendu 'DEBUT' dans la fonction", lexer.Keyword, "DEBUT"); err != nil {
		return nil, err
	}
	if fn.Body, err = p.parseBlock("FINFONCTION"); err != nil {
		return nil, err
	}
	if _, err := p.expect(line, "Attendu 'FINFONCTION' pour fermer la fonction", lexer.Keyword, "FINFONCTION"); err != nil {
		return nil, err
	}
	return fn, nil
}
