// Package main is coolproxyctl, a small operator CLI for inspecting a
// running coolproxy admin surface, editing upstream config files offline,
// and firing synthetic load at a proxy for a quick smoke test. It is shaped
// like the teacher's one-off tools/ binaries, just with urfave/cli
// subcommands instead of a flat flag.FlagSet.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "coolproxyctl"
	app.Usage = "inspect and administer a coolproxy node"
	app.Commands = []*cli.Command{
		statusCommand,
		downCommand,
		simulateCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
