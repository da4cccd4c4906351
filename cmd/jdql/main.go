// Command jdql parses, explains and executes Jakarta Data queries.
package main

import (
	"fmt"
	"os"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jdql:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
