package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/jdql"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/keyvalue"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/translate"
)

// KVOptions holds flags for the kv command.
type KVOptions struct {
	*RootOptions
	Params []string // name=value bindings applied to every statement
}

// KVResult holds the values each statement returned, in order.
type KVResult struct {
	Statements []KVStatementResult `json:"statements"`
}

// KVStatementResult is the outcome of one GET, DEL or PUT.
type KVStatementResult struct {
	Query  string           `json:"query"`
	Values []keyvalue.Value `json:"values"`
}

func (r KVResult) String() string {
	var b strings.Builder
	for i, st := range r.Statements {
		if i > 0 {
			b.WriteByte('\n')
		}
		vals := make([]string, len(st.Values))
		for j, v := range st.Values {
			vals[j] = v.String()
		}
		fmt.Fprintf(&b, "%s => [%s]", st.Query, strings.Join(vals, ", "))
	}
	return b.String()
}

// NewKVCommand creates the kv command.
func NewKVCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KVOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "kv <query>...",
		Short: "Execute GET, DEL and PUT statements against a bucket",
		Long: `Execute key-value statements in order against one bucket.

The bucket is BadgerDB when the config selects the badger backend (in
memory when backend.path is empty) and an in-memory bucket otherwise.
Statements referencing parameters run prepared with the --param bindings.

Examples:
  jdql kv "PUT {'greeting', 'hello'}" "GET 'greeting'"
  jdql kv "PUT {:key, :value, 10 second}" --param key=session --param value=abc
  jdql kv "DEL 'a', 'b'" --config badger.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKV(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter binding name=value (repeatable)")
	return cmd
}

func runKV(opts *KVOptions, texts []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := context.Background()

	params, _, err := parseParams(opts.Params)
	if err != nil {
		return err
	}

	e, err := loadEnv(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	bucket, closeFn, err := e.openBucket()
	if err != nil {
		return err
	}
	defer closeFn()

	cache, err := kvCache(e.cfg.Cache.MaxEntries)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create query cache", err)
	}
	exec := keyvalue.NewExecutor(bucket,
		jdql.NewKeyValueProvider(e.parser(), cache),
		keyvalue.WithLogger(e.logger),
		keyvalue.WithFolder(translate.New().Fold),
	)

	result := KVResult{Statements: make([]KVStatementResult, 0, len(texts))}
	for _, text := range texts {
		values, err := runKVStatement(ctx, exec, text, params)
		if err != nil {
			return reportQueryError(formatter, err)
		}
		result.Statements = append(result.Statements, KVStatementResult{Query: text, Values: values})
	}
	return formatter.Success(result)
}

// runKVStatement executes text directly, or prepared when it references
// parameters. Bindings for names the statement does not use are skipped.
func runKVStatement(ctx context.Context, exec *keyvalue.Executor, text string, params map[string]any) ([]keyvalue.Value, error) {
	stmt, err := exec.Prepare(text)
	if err != nil {
		return nil, err
	}
	names := stmt.Params()
	if len(names) == 0 {
		return exec.Execute(ctx, text)
	}
	for _, name := range names {
		value, ok := params[name]
		if !ok {
			continue
		}
		if err := stmt.Bind(name, value); err != nil {
			return nil, err
		}
	}
	return stmt.Result(ctx)
}

func kvCache(size int) (*jdql.Cache[*jdql.KeyValueStatement], error) {
	if size <= 0 {
		return jdql.NewCache[*jdql.KeyValueStatement](), nil
	}
	return jdql.NewBoundedCache[*jdql.KeyValueStatement](size)
}
