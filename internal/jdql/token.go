package jdql

import "fmt"

// Kind identifies the lexical class of a token.
type Kind string

// Token kinds. Words are always IDENT; keywords are matched by the parser so
// that field and entity names may reuse them.
const (
	EOF   Kind = "EOF"
	IDENT Kind = "IDENT"

	INT    Kind = "INT"
	FLOAT  Kind = "FLOAT"
	STRING Kind = "STRING"

	NAMED_PARAM      Kind = "NAMED_PARAM"
	POSITIONAL_PARAM Kind = "POSITIONAL_PARAM"

	COMMA  Kind = ","
	LPAREN Kind = "("
	RPAREN Kind = ")"
	LBRACE Kind = "{"
	RBRACE Kind = "}"
	STAR   Kind = "*"
	PLUS   Kind = "+"
	MINUS  Kind = "-"
	SLASH  Kind = "/"
	EQ     Kind = "="
	NEQ    Kind = "<>"
	LT     Kind = "<"
	LTE    Kind = "<="
	GT     Kind = ">"
	GTE    Kind = ">="
)

// Position is a 1-based location in the query text.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexeme. For STRING tokens Text is the content between the
// delimiters; for parameters it is the binding key; Raw is the source slice.
type Token struct {
	Kind Kind
	Text string
	Raw  string
	Pos  Position
}

// reserved words that end an entity/field position.
var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "ORDER": true, "BY": true,
	"SKIP": true, "LIMIT": true, "AND": true, "OR": true, "NOT": true,
	"ASC": true, "DESC": true, "SET": true,
}
