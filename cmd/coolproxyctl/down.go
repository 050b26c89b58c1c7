package main

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v2"

	"github.com/coolproxy/coolproxy/config"
)

var downCommand = &cli.Command{
	Name:  "down",
	Usage: "mark a server down in an upstream config file on disk (coolproxy must be restarted to pick up the change)",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "upstream-config",
			Usage:    "path to the upstream config YAML file to edit",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "server",
			Usage:    "name of the server to mark down",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "yes",
			Usage: "skip the confirmation prompt",
		},
	},
	Action: runDown,
}

func runDown(ctx *cli.Context) error {
	path := ctx.String("upstream-config")
	serverName := ctx.String("server")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	idx := -1
	for i, s := range cfg.Servers {
		if s.Name == serverName {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("no server named %q in %s", serverName, path)
	}

	if cfg.Servers[idx].Down {
		fmt.Printf("%q is already down in %s\n", serverName, path)
		return nil
	}

	if !ctx.Bool("yes") {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Mark %q down in %s", serverName, path),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Println("aborted")
			return nil
		}
	}

	cfg.Servers[idx].Down = true
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Printf("%q marked down in %s. Restart coolproxy to apply.\n", serverName, path)
	return nil
}
