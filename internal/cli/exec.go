package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/engine"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/jdql"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Entity string   // default entity for selects without FROM
	Params []string // name=value bindings
	Seed   string   // YAML file of entities inserted first
	Single bool     // expect at most one row
}

// ExecResult is the outcome of an executed query.
type ExecResult struct {
	Kind     string           `json:"kind"`
	Rows     []map[string]any `json:"rows"`
	Affected int64            `json:"affected,omitempty"`
}

func (r ExecResult) String() string {
	var b strings.Builder
	for _, row := range r.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			fmt.Fprintf(&b, "%v\n", row)
			continue
		}
		fmt.Fprintf(&b, "%s\n", data)
	}
	switch engine.Kind(r.Kind) {
	case engine.KindDelete, engine.KindUpdate:
		fmt.Fprintf(&b, "%d affected", r.Affected)
	default:
		fmt.Fprintf(&b, "%d row(s)", len(r.Rows))
	}
	return b.String()
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <query>",
		Short: "Execute a select, delete or update query",
		Long: `Execute a query against the configured document backend.

With --param bindings the query runs as a prepared statement and every
parameter must be bound. Without bindings it runs directly, and a query
that references parameters is refused. Values are YAML scalars or flow
sequences.

Exit codes:
  0 - Query executed
  1 - Query failed (syntax, missing parameter, non-unique result, ...)
  2 - Command error (bad config, backend unavailable, bad flag)

Examples:
  jdql exec "FROM Person WHERE age > :age" --param age=30 --seed people.yaml
  jdql exec "Person WHERE name IN :names" --param "names=[Ada, Alan]"
  jdql exec "DELETE FROM Person WHERE age < 18" --config jdql.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "entity for selects that omit FROM")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter binding name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "YAML file of entities to insert before executing")
	cmd.Flags().BoolVar(&opts.Single, "single", false, "fail when more than one row matches")
	return cmd
}

func runExec(opts *ExecOptions, text string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := context.Background()

	params, names, err := parseParams(opts.Params)
	if err != nil {
		return err
	}

	e, err := loadEnv(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	mgr, closeFn, err := e.openManager()
	if err != nil {
		return err
	}
	defer closeFn()

	if opts.Seed != "" {
		seed, err := loadSeed(opts.Seed)
		if err != nil {
			return err
		}
		for _, s := range seed {
			if _, err := mgr.Insert(ctx, manager.NewEntity(s.Entity, s.Fields)); err != nil {
				return WrapExitError(ExitCommandError, "failed to insert seed entity", err)
			}
		}
		formatter.VerboseLog("seeded %d entities", len(seed))
	}

	eng, err := e.newEngine(mgr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}

	var result ExecResult
	if len(names) == 0 {
		result, err = execDirect(ctx, eng, e, opts, text)
	} else {
		result, err = execPrepared(ctx, eng, e, opts, text, params, names)
	}
	if err != nil {
		return reportQueryError(formatter, err)
	}
	return formatter.Success(result)
}

// execDirect runs a query that binds nothing; parameters in text trip the
// direct-mode guard.
func execDirect(ctx context.Context, eng *engine.Engine, e *env, opts *ExecOptions, text string) (ExecResult, error) {
	switch jdql.Keyword(text) {
	case "DELETE":
		n, err := eng.Delete(ctx, text, e.observer())
		return ExecResult{Kind: string(engine.KindDelete), Rows: []map[string]any{}, Affected: n}, err
	case "UPDATE":
		n, err := eng.Update(ctx, text, e.observer())
		return ExecResult{Kind: string(engine.KindUpdate), Rows: []map[string]any{}, Affected: n}, err
	}

	rows, err := eng.Select(ctx, text, opts.Entity, e.observer())
	if err != nil {
		return ExecResult{}, err
	}
	if opts.Single && len(rows) > 1 {
		return ExecResult{}, query.NewNonUniqueResultError(len(rows)).WithQuery(text)
	}
	return ExecResult{Kind: string(engine.KindSelect), Rows: fieldsOf(rows)}, nil
}

// execPrepared prepares text, binds params in name order and executes.
func execPrepared(ctx context.Context, eng *engine.Engine, e *env, opts *ExecOptions, text string, params map[string]any, names []string) (ExecResult, error) {
	stmt, err := eng.Prepare(ctx, text, opts.Entity, e.observer())
	if err != nil {
		return ExecResult{}, err
	}
	for _, name := range names {
		if err := stmt.Bind(name, params[name]); err != nil {
			return ExecResult{}, err
		}
	}

	var rows []manager.Entity
	if opts.Single {
		row, found, err := stmt.SingleResult(ctx)
		if err != nil {
			return ExecResult{}, err
		}
		if found {
			rows = []manager.Entity{row}
		}
	} else if rows, err = stmt.Result(ctx); err != nil {
		return ExecResult{}, err
	}

	e.logger.Debug("prepared statement executed", "statement", stmt.ID(), "kind", stmt.Kind())
	return ExecResult{
		Kind:     string(stmt.Kind()),
		Rows:     fieldsOf(rows),
		Affected: stmt.Affected(),
	}, nil
}

func fieldsOf(rows []manager.Entity) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = row.Fields
	}
	return out
}

// reportQueryError prints err and returns the exit error for a failed query.
func reportQueryError(formatter *OutputFormatter, err error) error {
	if outErr := formatter.QueryError(err); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, "query failed", err)
}
