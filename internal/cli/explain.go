package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Entity string
}

// Explanation is the translated form of a query.
type Explanation struct {
	Kind     string   `json:"kind"`
	Criteria string   `json:"criteria"`
	Params   []string `json:"params"`
}

func (e Explanation) String() string {
	s := fmt.Sprintf("%s\n%s", e.Kind, e.Criteria)
	if len(e.Params) > 0 {
		s += "\nparams: " + strings.Join(e.Params, ", ")
	}
	return s
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Show the storage criteria a query translates to",
		Long: `Translate a query into backend-neutral criteria without executing it.

Entity and field names are renamed through the configured mappings and
enum constants are resolved. Parameters stay unresolved and are listed in
first-reference order.

Examples:
  jdql explain "FROM Person WHERE age > :age AND status = Status.ACTIVE"
  jdql explain "DELETE FROM Person WHERE name = ?1" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "entity for selects that omit FROM")
	return cmd
}

func runExplain(opts *ExplainOptions, text string, cmd *cobra.Command) error {
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

	// Preparing never touches storage, so an empty memory manager serves.
	eng, err := e.newEngine(manager.NewMemory(manager.WithLogger(e.logger)))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}

	stmt, err := eng.Prepare(context.Background(), text, opts.Entity, e.observer())
	if err != nil {
		return reportQueryError(formatter, err)
	}

	params := stmt.Params()
	if params == nil {
		params = []string{}
	}
	return formatter.Success(Explanation{
		Kind:     string(stmt.Kind()),
		Criteria: stmt.Criteria().String(),
		Params:   params,
	})
}
