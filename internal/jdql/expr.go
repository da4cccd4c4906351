package jdql

import (
	"strconv"
	"strings"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// specialExpressions are reserved scalar words. Only TRUE and FALSE are
// supported; the rest are rejected by name.
var specialExpressions = map[string]bool{
	"LOCAL":             true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"CURRENT_TIMESTAMP": true,
}

// parseOr handles the lowest precedence level: a OR b OR c.
func (s *state) parseOr() (query.Condition, error) {
	left, err := s.parseAnd()
	if err != nil {
		return query.Condition{}, err
	}
	terms := []query.Condition{left}
	for s.acceptKeyword("OR") {
		right, err := s.parseAnd()
		if err != nil {
			return query.Condition{}, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return left, nil
	}
	return query.NewOr(terms...), nil
}

func (s *state) parseAnd() (query.Condition, error) {
	left, err := s.parseNot()
	if err != nil {
		return query.Condition{}, err
	}
	terms := []query.Condition{left}
	for s.acceptKeyword("AND") {
		right, err := s.parseNot()
		if err != nil {
			return query.Condition{}, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return left, nil
	}
	return query.NewAnd(terms...), nil
}

// parseNot binds tighter than AND and applies to the next condition only.
func (s *state) parseNot() (query.Condition, error) {
	if s.acceptKeyword("NOT") {
		c, err := s.parseNot()
		if err != nil {
			return query.Condition{}, err
		}
		return query.NewNot(c), nil
	}
	if s.accept(LPAREN) {
		c, err := s.parseOr()
		if err != nil {
			return query.Condition{}, err
		}
		if _, err := s.expect(RPAREN); err != nil {
			return query.Condition{}, err
		}
		return c, nil
	}
	return s.parsePredicate()
}

func (s *state) parsePredicate() (query.Condition, error) {
	start := s.peek()
	if start.Kind != IDENT || reserved[strings.ToUpper(start.Text)] {
		return query.Condition{}, s.errorf(start, "unsupported condition")
	}
	if s.peekN(1).Kind == LPAREN {
		return query.Condition{}, s.errorf(start, "unsupported left operand")
	}
	name := s.next().Text

	negate := s.acceptKeyword("NOT")
	var cond query.Condition
	op := s.peek()
	switch {
	case !negate && op.Kind == EQ:
		s.next()
		v, err := s.parseScalar()
		if err != nil {
			return query.Condition{}, err
		}
		cond = query.NewCondition(name, query.Equals, v)
	case !negate && op.Kind == NEQ:
		s.next()
		v, err := s.parseScalar()
		if err != nil {
			return query.Condition{}, err
		}
		cond = query.NewNot(query.NewCondition(name, query.Equals, v))
	case !negate && isComparison(op.Kind):
		s.next()
		v, err := s.parseScalar()
		if err != nil {
			return query.Condition{}, err
		}
		cond = query.NewCondition(name, comparisons[op.Kind], v)
	case s.acceptKeyword("LIKE"):
		v, err := s.parseScalar()
		if err != nil {
			return query.Condition{}, err
		}
		cond = query.NewCondition(name, query.Like, v)
	case s.acceptKeyword("IN"):
		v, err := s.parseInList()
		if err != nil {
			return query.Condition{}, err
		}
		cond = query.NewCondition(name, query.In, v)
	case s.acceptKeyword("BETWEEN"):
		low, err := s.parseScalar()
		if err != nil {
			return query.Condition{}, err
		}
		if err := s.expectKeyword("AND"); err != nil {
			return query.Condition{}, err
		}
		high, err := s.parseScalar()
		if err != nil {
			return query.Condition{}, err
		}
		cond = query.NewCondition(name, query.Between, query.NewArray(low, high))
	case !negate && s.acceptKeyword("IS"):
		isNot := s.acceptKeyword("NOT")
		if err := s.expectKeyword("NULL"); err != nil {
			return query.Condition{}, err
		}
		cond = query.NewCondition(name, query.Equals, query.NullValue{})
		if isNot {
			cond = query.NewNot(cond)
		}
	default:
		return query.Condition{}, s.errorf(op, "comparison operator expected")
	}
	if negate {
		cond = query.NewNot(cond)
	}
	return cond, nil
}

var comparisons = map[Kind]query.Operator{
	GT:  query.GreaterThan,
	GTE: query.GreaterEqualsThan,
	LT:  query.LesserThan,
	LTE: query.LesserEqualsThan,
}

func isComparison(k Kind) bool {
	_, ok := comparisons[k]
	return ok
}

// parseInList accepts (a, b, ...) or a single parameter bound to a list.
func (s *state) parseInList() (query.Value, error) {
	if tok := s.peek(); tok.Kind == NAMED_PARAM || tok.Kind == POSITIONAL_PARAM {
		return s.parseScalar()
	}
	if _, err := s.expect(LPAREN); err != nil {
		return nil, err
	}
	var items query.ArrayValue
	for {
		v, err := s.parseScalar()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		if !s.accept(COMMA) {
			break
		}
	}
	if _, err := s.expect(RPAREN); err != nil {
		return nil, err
	}
	return items, nil
}

// parseScalar parses a scalar expression. A single primary, or a single
// parenthesized group, yields its own value. Any other arithmetic is kept as
// raw text in a PathValue.
func (s *state) parseScalar() (query.Value, error) {
	start := s.i
	v, composite, err := s.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !composite {
		return v, nil
	}
	var raw strings.Builder
	for _, tok := range s.tokens[start:s.i] {
		raw.WriteString(tok.Raw)
	}
	return query.NewPath(raw.String()), nil
}

func (s *state) parseAdditive() (query.Value, bool, error) {
	v, composite, err := s.parseMultiplicative()
	if err != nil {
		return nil, false, err
	}
	for s.peek().Kind == PLUS || s.peek().Kind == MINUS {
		s.next()
		if _, _, err := s.parseMultiplicative(); err != nil {
			return nil, false, err
		}
		composite = true
	}
	return v, composite, nil
}

func (s *state) parseMultiplicative() (query.Value, bool, error) {
	v, err := s.parsePrimary()
	if err != nil {
		return nil, false, err
	}
	composite := false
	for s.peek().Kind == STAR || s.peek().Kind == SLASH {
		s.next()
		if _, err := s.parsePrimary(); err != nil {
			return nil, false, err
		}
		composite = true
	}
	return v, composite, nil
}

func (s *state) parsePrimary() (query.Value, error) {
	tok := s.peek()
	switch tok.Kind {
	case STRING:
		s.next()
		return query.NewString(tok.Text), nil
	case INT, FLOAT:
		s.next()
		return s.number(tok, false)
	case MINUS:
		if n := s.peekN(1); n.Kind == INT || n.Kind == FLOAT {
			s.next()
			s.next()
			return s.number(n, true)
		}
	case NAMED_PARAM:
		s.next()
		return query.NewParam(tok.Text), nil
	case POSITIONAL_PARAM:
		s.next()
		return query.NewParam(tok.Text), nil
	case LPAREN:
		s.next()
		v, err := s.parseScalar()
		if err != nil {
			return nil, err
		}
		if _, err := s.expect(RPAREN); err != nil {
			return nil, err
		}
		return v, nil
	case IDENT:
		return s.parseIdentifier()
	}
	return nil, s.errorf(tok, "unsupported expression")
}

func (s *state) parseIdentifier() (query.Value, error) {
	tok := s.next()
	upper := strings.ToUpper(tok.Text)
	switch {
	case upper == "TRUE":
		return query.True, nil
	case upper == "FALSE":
		return query.False, nil
	case upper == "NULL":
		return query.NullValue{}, nil
	case specialExpressions[upper]:
		return nil, query.NewUnsupportedError(tok.Text, "unsupported special expression").WithQuery(s.text)
	case s.peek().Kind == LPAREN:
		return s.parseFunction(tok)
	case reserved[upper]:
		return nil, s.errorf(tok, "unsupported expression")
	}
	return s.resolveIdentifier(tok.Text), nil
}

// resolveIdentifier asks the enum converter first and falls back to a path.
func (s *state) resolveIdentifier(ident string) query.Value {
	if s.parser.enums != nil {
		if constant, err := s.parser.enums.Convert(ident); err == nil {
			return query.NewEnum(constant)
		}
	}
	return query.NewPath(ident)
}

func (s *state) parseFunction(name Token) (query.Value, error) {
	if _, ok := query.LookupFunction(name.Text); !ok {
		return nil, &query.Error{
			Code:    query.ErrCodeUnknownFunction,
			Message: "unknown function " + strconv.Quote(name.Text),
			Query:   s.text,
			Field:   name.Text,
		}
	}
	s.next() // (
	var args []query.Value
	if s.peek().Kind != RPAREN {
		for {
			arg, err := s.parseScalar()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !s.accept(COMMA) {
				break
			}
		}
	}
	if _, err := s.expect(RPAREN); err != nil {
		return nil, err
	}
	fn, err := query.NewFunctionCall(name.Text, args...)
	if err != nil {
		if qe, ok := err.(*query.Error); ok {
			return nil, qe.WithQuery(s.text)
		}
		return nil, err
	}
	fv, err := query.NewFunction(fn)
	if err != nil {
		return nil, err
	}
	return fv, nil
}

func (s *state) number(tok Token, negative bool) (query.Value, error) {
	text := tok.Text
	if negative {
		text = "-" + text
	}
	if tok.Kind == FLOAT {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, s.errorf(tok, "malformed number")
		}
		return query.NewFloat(f), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, s.errorf(tok, "malformed number")
	}
	return query.NewInt(n), nil
}
