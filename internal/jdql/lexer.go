package jdql

import (
	"unicode"
	"unicode/utf8"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// lexer converts query text into tokens.
type lexer struct {
	input  string
	pos    int
	line   int
	column int
}

// Tokenize splits text into tokens terminated by an EOF token.
func Tokenize(text string) ([]Token, error) {
	l := &lexer{input: text, line: 1, column: 1}
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *lexer) peekAt(n int) rune {
	p := l.pos
	for i := 0; i < n; i++ {
		if p >= len(l.input) {
			return 0
		}
		_, w := utf8.DecodeRuneInString(l.input[p:])
		p += w
	}
	if p >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[p:])
	return r
}

func (l *lexer) advance() rune {
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.column}
}

func (l *lexer) emit(kind Kind, start Position, text string) Token {
	return Token{Kind: kind, Text: text, Raw: l.input[start.Offset:l.pos], Pos: start}
}

func (l *lexer) next() (Token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
	start := l.position()
	if l.pos >= len(l.input) {
		return Token{Kind: EOF, Pos: start}, nil
	}

	r := l.peek()
	switch {
	case r == '\'' || r == '"':
		return l.readString(start)
	case isDigit(r):
		return l.readNumber(start), nil
	case isIdentStart(r):
		l.readIdent()
		return l.emit(IDENT, start, l.input[start.Offset:l.pos]), nil
	case r == ':' || r == '@':
		l.advance()
		if !isIdentStart(l.peek()) {
			return Token{}, l.errorAt(start, "parameter name expected")
		}
		nameStart := l.pos
		l.readIdent()
		return l.emit(NAMED_PARAM, start, l.input[nameStart:l.pos]), nil
	case r == '?':
		l.advance()
		if !isDigit(l.peek()) {
			return Token{}, l.errorAt(start, "positional parameter index expected")
		}
		for isDigit(l.peek()) {
			l.advance()
		}
		return l.emit(POSITIONAL_PARAM, start, l.input[start.Offset:l.pos]), nil
	}

	l.advance()
	switch r {
	case ',':
		return l.emit(COMMA, start, ","), nil
	case '(':
		return l.emit(LPAREN, start, "("), nil
	case ')':
		return l.emit(RPAREN, start, ")"), nil
	case '{':
		return l.emit(LBRACE, start, "{"), nil
	case '}':
		return l.emit(RBRACE, start, "}"), nil
	case '*':
		return l.emit(STAR, start, "*"), nil
	case '+':
		return l.emit(PLUS, start, "+"), nil
	case '-':
		return l.emit(MINUS, start, "-"), nil
	case '/':
		return l.emit(SLASH, start, "/"), nil
	case '=':
		return l.emit(EQ, start, "="), nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return l.emit(NEQ, start, "!="), nil
		}
	case '<':
		switch l.peek() {
		case '=':
			l.advance()
			return l.emit(LTE, start, "<="), nil
		case '>':
			l.advance()
			return l.emit(NEQ, start, "<>"), nil
		}
		return l.emit(LT, start, "<"), nil
	case '>':
		if l.peek() == '=' {
			l.advance()
			return l.emit(GTE, start, ">="), nil
		}
		return l.emit(GT, start, ">"), nil
	}
	return Token{}, l.errorAt(start, "unexpected character")
}

// readString consumes a delimited literal. A doubled delimiter does not end
// the literal; the token text is the raw content between the outer
// delimiters, nothing else is unescaped.
func (l *lexer) readString(start Position) (Token, error) {
	quote := l.advance()
	contentStart := l.pos
	for {
		if l.pos >= len(l.input) {
			return Token{}, l.errorAt(start, "unterminated string literal")
		}
		r := l.advance()
		if r == '\\' && l.pos < len(l.input) {
			l.advance()
			continue
		}
		if r == quote {
			if l.peek() == quote {
				l.advance()
				continue
			}
			content := l.input[contentStart : l.pos-1]
			return l.emit(STRING, start, content), nil
		}
	}
}

func (l *lexer) readNumber(start Position) Token {
	kind := INT
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		kind = FLOAT
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if r := l.peek(); r == 'e' || r == 'E' {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			kind = FLOAT
			l.advance()
			if next == '+' || next == '-' {
				l.advance()
			}
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	text := l.input[start.Offset:l.pos]
	return l.emit(kind, start, text)
}

// readIdent consumes a dotted identifier such as address.city.
func (l *lexer) readIdent() {
	for {
		for isIdentPart(l.peek()) {
			l.advance()
		}
		if l.peek() == '.' && isIdentStart(l.peekAt(1)) {
			l.advance()
			continue
		}
		return
	}
}

func (l *lexer) errorAt(pos Position, msg string) error {
	end := pos.Offset + 10
	if end > len(l.input) {
		end = len(l.input)
	}
	err := query.NewUnsupportedError(l.input[pos.Offset:end], msg+" at "+pos.String())
	return err.WithQuery(l.input)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
