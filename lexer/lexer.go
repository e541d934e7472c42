// Package lexer turns pseudocode source into a flat token stream.
//
// Scanning never fails: characters that start no token are dropped.
// Newlines are significant and reported as Newline tokens; comments are
// consumed without emitting anything.
package lexer

import (
	"strings"
	"unicode"
)

type scanner struct {
	src  []rune
	pos  int
	line int
	col  int
	toks []Token
}

// Tokenize scans src and returns its tokens, always terminated by EOF.
func Tokenize(src string) []Token {
	s := &scanner{src: []rune(src), line: 1, col: 1}
	s.run()
	return s.toks
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		s.skipBlanks()
		if s.pos >= len(s.src) {
			break
		}
		ch := s.cur()
		switch {
		case ch == '/' && s.peek(1) == '/':
			s.skipComment()
		case ch == '\n':
			s.emit(Newline, "\n", s.col)
			s.advance()
			s.line++
			s.col = 1
		case ch == '←' || (ch == '<' && s.peek(1) == '-'):
			col := s.col
			s.advance()
			if ch == '<' {
				s.advance()
			}
			s.emit(Assign, ArrowGlyph, col)
		case ch == '<' || ch == '>' || ch == '=' || ch == '!':
			s.scanComparison()
		case isDigit(ch):
			s.scanNumber()
		case ch == '"' || ch == '\'':
			s.scanString(ch)
		case isIdentStart(ch):
			s.scanWord()
		case strings.ContainsRune("+-*/^", ch):
			s.emit(Operator, string(ch), s.col)
			s.advance()
		default:
			if k, ok := punct[ch]; ok {
				s.emit(k, string(ch), s.col)
			}
			s.advance()
		}
	}
	s.emit(EOF, "", s.col)
}

var punct = map[rune]Kind{
	':': Colon,
	',': Comma,
	'(': LParen,
	')': RParen,
	'[': LBracket,
	']': RBracket,
}

func (s *scanner) cur() rune {
	return s.src[s.pos]
}

func (s *scanner) peek(off int) rune {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) advance() rune {
	r := s.src[s.pos]
	s.pos++
	s.col++
	return r
}

func (s *scanner) emit(k Kind, text string, col int) {
	s.toks = append(s.toks, Token{Kind: k, Text: text, Line: s.line, Column: col})
}

func (s *scanner) skipBlanks() {
	for s.pos < len(s.src) {
		switch s.cur() {
		case ' ', '\t', '\r':
			s.advance()
		default:
			return
		}
	}
}

func (s *scanner) skipComment() {
	for s.pos < len(s.src) && s.cur() != '\n' {
		s.advance()
	}
}

func (s *scanner) scanComparison() {
	col := s.col
	ch := s.advance()
	next := s.peek(0)
	switch ch {
	case '<':
		if next == '=' || next == '>' {
			s.advance()
			s.emit(Comparison, string([]rune{ch, next}), col)
			return
		}
	case '>':
		if next == '=' {
			s.advance()
			s.emit(Comparison, ">=", col)
			return
		}
	case '!':
		if next == '=' {
			s.advance()
			s.emit(Comparison, "!=", col)
		}
		// a lone '!' starts nothing
		return
	}
	s.emit(Comparison, string(ch), col)
}

func (s *scanner) scanNumber() {
	col := s.col
	start := s.pos
	for s.pos < len(s.src) && isDigit(s.cur()) {
		s.advance()
	}
	if s.pos < len(s.src) && s.cur() == '.' && isDigit(s.peek(1)) {
		s.advance()
		for s.pos < len(s.src) && isDigit(s.cur()) {
			s.advance()
		}
	}
	s.emit(Number, string(s.src[start:s.pos]), col)
}

func (s *scanner) scanString(quote rune) {
	col, line := s.col, s.line
	s.advance()
	var b strings.Builder
	for s.pos < len(s.src) && s.cur() != quote {
		r := s.advance()
		if r == '\n' {
			s.line++
			s.col = 1
		}
		if r == '\\' && s.pos < len(s.src) {
			r = s.advance()
			switch r {
			case 'n':
				r = '\n'
			case 't':
				r = '\t'
			case '\n':
				s.line++
				s.col = 1
			}
		}
		b.WriteRune(r)
	}
	if s.pos < len(s.src) {
		s.advance()
	}
	s.toks = append(s.toks, Token{Kind: String, Text: b.String(), Line: line, Column: col})
}

func (s *scanner) readWord() string {
	start := s.pos
	for s.pos < len(s.src) && isIdentPart(s.cur()) {
		s.advance()
	}
	return string(s.src[start:s.pos])
}

func (s *scanner) scanWord() {
	col := s.col
	word := s.readWord()
	upper := strings.ToUpper(word)
	if canon, ok := LookupKeyword(upper); ok {
		if canon == "FIN" {
			if folded, ok := s.foldFin(); ok {
				canon = folded
			}
		}
		s.emit(Keyword, canon, col)
		return
	}
	s.emit(Identifier, word, col)
}

// foldFin tries to merge the words following FIN on the same line into one
// closing keyword. The cursor is restored when nothing matches.
func (s *scanner) foldFin() (string, bool) {
	savedPos, savedCol := s.pos, s.col
	s.skipBlanks()
	next := strings.ToUpper(s.readWord())
	if next == "TANT" {
		s.skipBlanks()
		if strings.ToUpper(s.readWord()) == "QUE" {
			return WhileEnd, true
		}
	} else if folded, ok := finSuffixes[next]; ok {
		return folded, true
	}
	s.pos, s.col = savedPos, savedCol
	return "", false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
