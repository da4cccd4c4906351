package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/jdql"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Entity string // default entity for selects without FROM
}

// ParsedQuery is the printable form of a parsed query in any dialect.
type ParsedQuery struct {
	Dialect string   `json:"dialect"`
	Entity  string   `json:"entity,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	Count   bool     `json:"count,omitempty"`
	Where   string   `json:"where,omitempty"`
	Sorts   []string `json:"sorts,omitempty"`
	Skip    int64    `json:"skip,omitempty"`
	Limit   int64    `json:"limit,omitempty"`
	Set     []string `json:"set,omitempty"`
	Keys    []string `json:"keys,omitempty"`
	Value   string   `json:"value,omitempty"`
	TTL     string   `json:"ttl,omitempty"`
	Params  []string `json:"params,omitempty"`
}

func (p ParsedQuery) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dialect: %s", p.Dialect)
	line := func(key string, value any) {
		fmt.Fprintf(&b, "\n%s: %v", key, value)
	}
	if p.Entity != "" {
		line("entity", p.Entity)
	}
	if len(p.Fields) > 0 {
		line("fields", strings.Join(p.Fields, ", "))
	}
	if p.Count {
		line("count", true)
	}
	if p.Where != "" {
		line("where", p.Where)
	}
	if len(p.Sorts) > 0 {
		line("sorts", strings.Join(p.Sorts, ", "))
	}
	if p.Skip > 0 {
		line("skip", p.Skip)
	}
	if p.Limit > 0 {
		line("limit", p.Limit)
	}
	if len(p.Set) > 0 {
		line("set", strings.Join(p.Set, ", "))
	}
	if len(p.Keys) > 0 {
		line("keys", strings.Join(p.Keys, ", "))
	}
	if p.Value != "" {
		line("value", p.Value)
	}
	if p.TTL != "" {
		line("ttl", p.TTL)
	}
	if len(p.Params) > 0 {
		line("params", strings.Join(p.Params, ", "))
	}
	return b.String()
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query and print its syntax tree",
		Long: `Parse a query in any dialect and print its syntax tree.

The leading keyword picks the dialect: DELETE, UPDATE, GET, DEL and PUT
parse as themselves, anything else parses as a select.

Examples:
  jdql parse "FROM Person WHERE age > 30 ORDER BY name"
  jdql parse "WHERE name = :name" --entity Person
  jdql parse "PUT {'session', 'abc', 10 second}" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "entity for selects that omit FROM")
	return cmd
}

func runParse(opts *ParseOptions, text string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	e, err := loadEnv(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	parsed, err := describe(e.parser(), text, opts.Entity)
	if err != nil {
		return reportQueryError(formatter, err)
	}
	return formatter.Success(parsed)
}

// describe parses text in the dialect its keyword selects.
func describe(p *jdql.Parser, text, entity string) (ParsedQuery, error) {
	dialect := jdql.Keyword(text)
	switch dialect {
	case "DELETE":
		q, err := p.ParseDelete(text)
		if err != nil {
			return ParsedQuery{}, err
		}
		return ParsedQuery{
			Dialect: dialect,
			Entity:  q.Entity,
			Fields:  q.Fields,
			Where:   conditionString(q.Where),
			Params:  q.Params(),
		}, nil
	case "UPDATE":
		q, err := p.ParseUpdate(text)
		if err != nil {
			return ParsedQuery{}, err
		}
		set := make([]string, len(q.Set))
		for i, item := range q.Set {
			set[i] = fmt.Sprintf("%s = %s", item.Name, item.Value)
		}
		return ParsedQuery{
			Dialect: dialect,
			Entity:  q.Entity,
			Set:     set,
			Where:   conditionString(q.Where),
			Params:  q.Params(),
		}, nil
	case "GET":
		q, err := p.ParseGet(text)
		if err != nil {
			return ParsedQuery{}, err
		}
		return ParsedQuery{Dialect: dialect, Keys: valueStrings(q.Keys), Params: q.Params()}, nil
	case "DEL":
		q, err := p.ParseDel(text)
		if err != nil {
			return ParsedQuery{}, err
		}
		return ParsedQuery{Dialect: dialect, Keys: valueStrings(q.Keys), Params: q.Params()}, nil
	case "PUT":
		q, err := p.ParsePut(text)
		if err != nil {
			return ParsedQuery{}, err
		}
		parsed := ParsedQuery{
			Dialect: dialect,
			Keys:    []string{q.Key.String()},
			Value:   q.Value.String(),
			Params:  q.Params(),
		}
		if q.TTL > 0 {
			parsed.TTL = q.TTL.String()
		}
		return parsed, nil
	default:
		q, err := p.ParseSelect(text, entity)
		if err != nil {
			return ParsedQuery{}, err
		}
		sorts := make([]string, len(q.Sorts))
		for i, s := range q.Sorts {
			dir := "ASC"
			if !s.Ascending {
				dir = "DESC"
			}
			sorts[i] = s.Property + " " + dir
		}
		return ParsedQuery{
			Dialect: "SELECT",
			Entity:  q.Entity,
			Fields:  q.Fields,
			Count:   q.Count,
			Where:   conditionString(q.Where),
			Sorts:   sorts,
			Skip:    q.Skip,
			Limit:   q.Limit,
			Params:  q.Params(),
		}, nil
	}
}

func conditionString(c *query.Condition) string {
	if c == nil {
		return ""
	}
	return c.String()
}

func valueStrings(values []query.Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
