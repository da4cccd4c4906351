package jdql

import (
	"strings"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// nullEntity marks an absent entity override in select cache keys.
const nullEntity = "<null>"

const keySeparator = "\x00"

// SelectKey returns the cache key for a select: the text plus the entity
// override, since the override changes the result.
func SelectKey(text, entity string) string {
	if entity == "" {
		entity = nullEntity
	}
	return text + keySeparator + entity
}

// SelectProvider parses select statements through a cache.
type SelectProvider struct {
	parser *Parser
	cache  *Cache[*query.SelectQuery]
}

// NewSelectProvider creates a provider owning cache.
func NewSelectProvider(parser *Parser, cache *Cache[*query.SelectQuery]) *SelectProvider {
	return &SelectProvider{parser: parser, cache: cache}
}

// Apply returns the cached AST for (text, entity), parsing it on first use.
func (p *SelectProvider) Apply(text, entity string) (*query.SelectQuery, error) {
	if text == "" {
		return nil, query.NewNilArgumentError("query")
	}
	return p.cache.Get(SelectKey(text, entity), func() (*query.SelectQuery, error) {
		return p.parser.ParseSelect(text, entity)
	})
}

// Len reports the number of cached statements.
func (p *SelectProvider) Len() int { return p.cache.Len() }

// DeleteProvider parses delete statements through a cache keyed by text.
type DeleteProvider struct {
	parser *Parser
	cache  *Cache[*query.DeleteQuery]
}

// NewDeleteProvider creates a provider owning cache.
func NewDeleteProvider(parser *Parser, cache *Cache[*query.DeleteQuery]) *DeleteProvider {
	return &DeleteProvider{parser: parser, cache: cache}
}

// Apply returns the cached AST for text, parsing it on first use.
func (p *DeleteProvider) Apply(text string) (*query.DeleteQuery, error) {
	if text == "" {
		return nil, query.NewNilArgumentError("query")
	}
	return p.cache.Get(text, func() (*query.DeleteQuery, error) {
		return p.parser.ParseDelete(text)
	})
}

// UpdateProvider parses update statements through a cache keyed by text.
type UpdateProvider struct {
	parser *Parser
	cache  *Cache[*query.UpdateQuery]
}

// NewUpdateProvider creates a provider owning cache.
func NewUpdateProvider(parser *Parser, cache *Cache[*query.UpdateQuery]) *UpdateProvider {
	return &UpdateProvider{parser: parser, cache: cache}
}

// Apply returns the cached AST for text, parsing it on first use.
func (p *UpdateProvider) Apply(text string) (*query.UpdateQuery, error) {
	if text == "" {
		return nil, query.NewNilArgumentError("query")
	}
	return p.cache.Get(text, func() (*query.UpdateQuery, error) {
		return p.parser.ParseUpdate(text)
	})
}

// KeyValueStatement is one parsed key-value statement; exactly one field is set.
type KeyValueStatement struct {
	Get *query.GetQuery
	Del *query.DelQuery
	Put *query.PutQuery
}

// Params lists the statement's parameter keys in first-reference order.
func (s *KeyValueStatement) Params() []string {
	switch {
	case s.Get != nil:
		return s.Get.Params()
	case s.Del != nil:
		return s.Del.Params()
	case s.Put != nil:
		return s.Put.Params()
	}
	return nil
}

// KeyValueProvider parses GET/DEL/PUT statements through a cache keyed by text.
type KeyValueProvider struct {
	parser *Parser
	cache  *Cache[*KeyValueStatement]
}

// NewKeyValueProvider creates a provider owning cache.
func NewKeyValueProvider(parser *Parser, cache *Cache[*KeyValueStatement]) *KeyValueProvider {
	return &KeyValueProvider{parser: parser, cache: cache}
}

// Apply returns the cached statement for text, dispatching on its keyword.
func (p *KeyValueProvider) Apply(text string) (*KeyValueStatement, error) {
	if text == "" {
		return nil, query.NewNilArgumentError("query")
	}
	return p.cache.Get(text, func() (*KeyValueStatement, error) {
		switch Keyword(text) {
		case "GET":
			q, err := p.parser.ParseGet(text)
			if err != nil {
				return nil, err
			}
			return &KeyValueStatement{Get: q}, nil
		case "DEL":
			q, err := p.parser.ParseDel(text)
			if err != nil {
				return nil, err
			}
			return &KeyValueStatement{Del: q}, nil
		case "PUT":
			q, err := p.parser.ParsePut(text)
			if err != nil {
				return nil, err
			}
			return &KeyValueStatement{Put: q}, nil
		}
		return nil, query.NewUnsupportedError(text, "GET, DEL or PUT expected").WithQuery(text)
	})
}

// Keyword returns the upper-cased leading word of text, or "" if the text
// does not start with a word.
func Keyword(text string) string {
	tokens, err := Tokenize(text)
	if err != nil || len(tokens) == 0 || tokens[0].Kind != IDENT {
		return ""
	}
	return strings.ToUpper(tokens[0].Text)
}
