package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/logrusorgru/aurora"
	progressbar "github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

var simulateCommand = &cli.Command{
	Name:  "simulate",
	Usage: "fire a burst of requests at a proxy to exercise peer selection",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "proxy-addr",
			Usage: "base URL of the coolproxy reverse proxy",
			Value: "http://127.0.0.1:8080",
		},
		&cli.IntFlag{
			Name:  "count",
			Usage: "number of requests to send",
			Value: 20,
		},
	},
	Action: runSimulate,
}

func runSimulate(ctx *cli.Context) error {
	addr := ctx.String("proxy-addr")
	count := ctx.Int("count")

	bar := progressbar.Default(int64(count))
	client := &http.Client{Timeout: 5 * time.Second}

	var ok, failed int
	for i := 0; i < count; i++ {
		resp, err := client.Get(addr)
		if err != nil || resp.StatusCode >= 500 {
			failed++
		} else {
			ok++
		}
		if resp != nil {
			resp.Body.Close()
		}
		_ = bar.Add(1)
	}

	fmt.Printf("\n%s %d  %s %d\n", aurora.Green("ok:"), ok, aurora.Red("failed:"), failed)
	return nil
}
