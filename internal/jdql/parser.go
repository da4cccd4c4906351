package jdql

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// EnumConverter resolves a bare identifier to an enum constant. Returning an
// error means "not an enum"; the parser then treats the identifier as a path.
type EnumConverter interface {
	Convert(identifier string) (any, error)
}

// EnumConverterFunc adapts a function to EnumConverter.
type EnumConverterFunc func(identifier string) (any, error)

// Convert implements EnumConverter.
func (f EnumConverterFunc) Convert(identifier string) (any, error) {
	return f(identifier)
}

// Parser turns JDQL text into query ASTs. It holds no per-query state and is
// safe for concurrent use.
type Parser struct {
	enums EnumConverter
}

// Option configures a Parser.
type Option func(*Parser)

// WithEnumConverter installs the converter consulted before a bare identifier
// falls back to a path.
func WithEnumConverter(c EnumConverter) Option {
	return func(p *Parser) {
		p.enums = c
	}
}

// NewParser creates a Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseSelect parses a select statement. entity is used when the text names
// no entity; pass "" when there is no override.
func (p *Parser) ParseSelect(text, entity string) (*query.SelectQuery, error) {
	s, err := p.begin(text)
	if err != nil {
		return nil, err
	}
	q := &query.SelectQuery{}

	if s.acceptKeyword("SELECT") {
		if err := s.parseProjection(q); err != nil {
			return nil, err
		}
	}
	if s.acceptKeyword("FROM") {
		name, err := s.expectName("entity name")
		if err != nil {
			return nil, err
		}
		q.Entity = name
	} else if s.isName() {
		q.Entity = s.next().Text
	}
	if q.Entity == "" {
		q.Entity = entity
	}
	if q.Entity == "" {
		return nil, s.errorf(s.peek(), "entity name is required")
	}

	if q.Where, err = s.parseWhere(); err != nil {
		return nil, err
	}
	if s.acceptKeyword("ORDER") {
		if err := s.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if q.Sorts, err = s.parseSorts(); err != nil {
			return nil, err
		}
	}
	if err := s.parsePagination(q); err != nil {
		return nil, err
	}
	if err := s.expectEnd(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseDelete parses a delete statement. The entity must be named in the text.
func (p *Parser) ParseDelete(text string) (*query.DeleteQuery, error) {
	s, err := p.begin(text)
	if err != nil {
		return nil, err
	}
	if err := s.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	q := &query.DeleteQuery{}

	if s.acceptKeyword("FROM") {
		if q.Entity, err = s.expectName("entity name"); err != nil {
			return nil, err
		}
	} else {
		names, err := s.parseNameList()
		if err != nil {
			return nil, err
		}
		switch {
		case s.acceptKeyword("FROM"):
			q.Fields = names
			if q.Entity, err = s.expectName("entity name"); err != nil {
				return nil, err
			}
		case len(names) == 1:
			q.Entity = names[0]
		default:
			return nil, s.errorf(s.peek(), "FROM expected")
		}
	}

	if q.Where, err = s.parseWhere(); err != nil {
		return nil, err
	}
	if err := s.expectEnd(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseUpdate parses an update statement. The entity must be named in the text.
func (p *Parser) ParseUpdate(text string) (*query.UpdateQuery, error) {
	s, err := p.begin(text)
	if err != nil {
		return nil, err
	}
	if err := s.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	q := &query.UpdateQuery{}
	if q.Entity, err = s.expectName("entity name"); err != nil {
		return nil, err
	}
	if err := s.expectKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		name, err := s.expectName("field name")
		if err != nil {
			return nil, err
		}
		if _, err := s.expect(EQ); err != nil {
			return nil, err
		}
		value, err := s.parseScalar()
		if err != nil {
			return nil, err
		}
		q.Set = append(q.Set, query.UpdateItem{Name: name, Value: value})
		if !s.accept(COMMA) {
			break
		}
	}
	if q.Where, err = s.parseWhere(); err != nil {
		return nil, err
	}
	if err := s.expectEnd(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseGet parses a key-value GET statement.
func (p *Parser) ParseGet(text string) (*query.GetQuery, error) {
	keys, err := p.parseKeyStatement(text, "GET")
	if err != nil {
		return nil, err
	}
	return &query.GetQuery{Keys: keys}, nil
}

// ParseDel parses a key-value DEL statement.
func (p *Parser) ParseDel(text string) (*query.DelQuery, error) {
	keys, err := p.parseKeyStatement(text, "DEL")
	if err != nil {
		return nil, err
	}
	return &query.DelQuery{Keys: keys}, nil
}

// ParsePut parses a key-value PUT statement: PUT {key, value [, n unit]}.
func (p *Parser) ParsePut(text string) (*query.PutQuery, error) {
	s, err := p.begin(text)
	if err != nil {
		return nil, err
	}
	if err := s.expectKeyword("PUT"); err != nil {
		return nil, err
	}
	if _, err := s.expect(LBRACE); err != nil {
		return nil, err
	}
	q := &query.PutQuery{}
	if q.Key, err = s.parseScalar(); err != nil {
		return nil, err
	}
	if _, err := s.expect(COMMA); err != nil {
		return nil, err
	}
	if q.Value, err = s.parseScalar(); err != nil {
		return nil, err
	}
	if s.accept(COMMA) {
		if q.TTL, err = s.parseDuration(); err != nil {
			return nil, err
		}
	}
	if _, err := s.expect(RBRACE); err != nil {
		return nil, err
	}
	if err := s.expectEnd(); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *Parser) parseKeyStatement(text, keyword string) ([]query.Value, error) {
	s, err := p.begin(text)
	if err != nil {
		return nil, err
	}
	if err := s.expectKeyword(keyword); err != nil {
		return nil, err
	}
	var keys []query.Value
	for {
		key, err := s.parseScalar()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		if !s.accept(COMMA) {
			break
		}
	}
	if err := s.expectEnd(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (p *Parser) begin(text string) (*state, error) {
	if strings.TrimSpace(text) == "" {
		return nil, query.NewNilArgumentError("query")
	}
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	return &state{parser: p, text: text, tokens: tokens}, nil
}

// state is the cursor over one query's tokens.
type state struct {
	parser *Parser
	text   string
	tokens []Token
	i      int
}

func (s *state) peek() Token {
	return s.tokens[s.i]
}

func (s *state) peekN(n int) Token {
	if s.i+n >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1]
	}
	return s.tokens[s.i+n]
}

func (s *state) next() Token {
	tok := s.tokens[s.i]
	if tok.Kind != EOF {
		s.i++
	}
	return tok
}

func (s *state) isKeyword(kw string) bool {
	tok := s.peek()
	return tok.Kind == IDENT && strings.EqualFold(tok.Text, kw)
}

func (s *state) acceptKeyword(kw string) bool {
	if s.isKeyword(kw) {
		s.next()
		return true
	}
	return false
}

func (s *state) expectKeyword(kw string) error {
	if !s.acceptKeyword(kw) {
		return s.errorf(s.peek(), kw+" expected")
	}
	return nil
}

func (s *state) accept(kind Kind) bool {
	if s.peek().Kind == kind {
		s.next()
		return true
	}
	return false
}

func (s *state) expect(kind Kind) (Token, error) {
	tok := s.peek()
	if tok.Kind != kind {
		return tok, s.errorf(tok, fmt.Sprintf("%s expected", kind))
	}
	return s.next(), nil
}

// isName reports whether the next token can be an entity or field name.
func (s *state) isName() bool {
	tok := s.peek()
	return tok.Kind == IDENT && !reserved[strings.ToUpper(tok.Text)]
}

func (s *state) expectName(what string) (string, error) {
	if !s.isName() {
		return "", s.errorf(s.peek(), what+" expected")
	}
	return s.next().Text, nil
}

func (s *state) parseNameList() ([]string, error) {
	var names []string
	for {
		name, err := s.expectName("name")
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if !s.accept(COMMA) {
			return names, nil
		}
	}
}

func (s *state) expectEnd() error {
	if tok := s.peek(); tok.Kind != EOF {
		return s.errorf(tok, "unexpected input")
	}
	return nil
}

// errorf reports a parse failure carrying the unparsed remainder of the text.
func (s *state) errorf(tok Token, msg string) error {
	fragment := "<end of query>"
	if tok.Kind != EOF {
		fragment = s.text[tok.Pos.Offset:]
	}
	return query.NewUnsupportedError(fragment, msg+" at "+tok.Pos.String()).WithQuery(s.text)
}

func (s *state) parseProjection(q *query.SelectQuery) error {
	if s.isKeyword("COUNT") && s.peekN(1).Kind == LPAREN {
		s.next()
		s.next()
		if !s.accept(STAR) && !s.acceptKeyword("THIS") {
			return s.errorf(s.peek(), "THIS or * expected in COUNT")
		}
		if _, err := s.expect(RPAREN); err != nil {
			return err
		}
		q.Count = true
		return nil
	}
	if s.accept(STAR) {
		return nil
	}
	fields, err := s.parseNameList()
	if err != nil {
		return err
	}
	q.Fields = fields
	return nil
}

func (s *state) parseWhere() (*query.Condition, error) {
	if !s.acceptKeyword("WHERE") {
		return nil, nil
	}
	c, err := s.parseOr()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *state) parseSorts() ([]query.Sort, error) {
	var sorts []query.Sort
	for {
		prop, err := s.expectName("sort property")
		if err != nil {
			return nil, err
		}
		sort := query.Sort{Property: prop, Ascending: true}
		if s.acceptKeyword("DESC") {
			sort.Ascending = false
		} else {
			s.acceptKeyword("ASC")
		}
		sorts = append(sorts, sort)
		if !s.accept(COMMA) {
			return sorts, nil
		}
	}
}

// parsePagination accepts SKIP and LIMIT once each, in either order.
func (s *state) parsePagination(q *query.SelectQuery) error {
	var seenSkip, seenLimit bool
	for {
		switch {
		case !seenSkip && s.acceptKeyword("SKIP"):
			n, err := s.expectCount()
			if err != nil {
				return err
			}
			q.Skip, seenSkip = n, true
		case !seenLimit && s.acceptKeyword("LIMIT"):
			n, err := s.expectCount()
			if err != nil {
				return err
			}
			q.Limit, seenLimit = n, true
		default:
			return nil
		}
	}
}

func (s *state) expectCount() (int64, error) {
	tok, err := s.expect(INT)
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.ParseInt(tok.Text, 10, 64)
	if convErr != nil {
		return 0, s.errorf(tok, "malformed integer")
	}
	return n, nil
}

var durationUnits = map[string]time.Duration{
	"NANOSECOND":  time.Nanosecond,
	"MICROSECOND": time.Microsecond,
	"MILLISECOND": time.Millisecond,
	"SECOND":      time.Second,
	"MINUTE":      time.Minute,
	"HOUR":        time.Hour,
	"DAY":         24 * time.Hour,
}

func (s *state) parseDuration() (time.Duration, error) {
	countTok := s.peek()
	n, err := s.expectCount()
	if err != nil {
		return 0, err
	}
	tok := s.peek()
	if tok.Kind != IDENT {
		return 0, s.errorf(tok, "time unit expected")
	}
	unit, ok := durationUnits[strings.TrimSuffix(strings.ToUpper(tok.Text), "S")]
	if !ok {
		return 0, s.errorf(tok, "unknown time unit")
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, s.errorf(countTok, "duration out of range")
	}
	s.next()
	return time.Duration(n) * unit, nil
}
