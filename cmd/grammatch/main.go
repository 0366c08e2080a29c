// Command grammatch checks candidate strings against a numbered-rule grammar.
package main

import (
	"context"
	"os"

	"github.com/roach88/grammatch/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	os.Exit(cli.GetExitCode(err))
}
