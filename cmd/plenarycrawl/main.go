// Command plenarycrawl runs the crawler, postprocessing, indexing and
// one-shot download subcommands described by internal/cli.
package main

import (
	cmd "github.com/dhansen/plenarycrawl/internal/cli"
)

func main() {
	cmd.Execute()
}
