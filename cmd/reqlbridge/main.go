// Command reqlbridge compiles and runs ORM queries against RethinkDB.
package main

import (
	"os"

	"github.com/roach88/reqlbridge/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
