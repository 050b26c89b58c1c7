package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/logrusorgru/aurora"
	"github.com/urfave/cli/v2"
)

// poolStatus and peerStatus mirror the JSON shape proxy.Admin's /pools
// endpoints serve (proxy.poolStatus/peerStatus are unexported, so this CLI
// decodes its own copy of the wire format rather than importing internals).
type poolStatus struct {
	Name           string       `json:"name"`
	RequestsPerMin int64        `json:"requests_per_min"`
	Peers          []peerStatus `json:"peers"`
}

type peerStatus struct {
	Name            string `json:"name"`
	Weight          int    `json:"weight"`
	EffectiveWeight int    `json:"effective_weight"`
	CurrentWeight   int    `json:"current_weight"`
	Fails           int    `json:"fails"`
	MaxFails        int    `json:"max_fails"`
	Down            bool   `json:"down"`
	Accessed        string `json:"accessed"`
}

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "print the current state of one or all pools served by a coolproxy admin surface",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "admin-addr",
			Usage: "base URL of the admin server",
			Value: "http://127.0.0.1:8081",
		},
		&cli.StringFlag{
			Name:  "pool",
			Usage: "print only this pool; prints all pools if omitted",
		},
	},
	Action: runStatus,
}

func runStatus(ctx *cli.Context) error {
	base := ctx.String("admin-addr")
	pool := ctx.String("pool")

	path := "/pools"
	if pool != "" {
		path = "/pools/" + pool
	}

	resp, err := http.Get(base + path)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("admin server returned %s for %s", resp.Status, path)
	}

	var pools []poolStatus
	if pool != "" {
		var single poolStatus
		if err := json.NewDecoder(resp.Body).Decode(&single); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		pools = []poolStatus{single}
	} else if err := json.NewDecoder(resp.Body).Decode(&pools); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	for _, p := range pools {
		printPoolStatus(p)
	}
	return nil
}

func printPoolStatus(p poolStatus) {
	fmt.Printf("%s %s\n", aurora.Bold(p.Name), aurora.Gray(12, fmt.Sprintf("(%d req/min)", p.RequestsPerMin)))
	for _, peer := range p.Peers {
		var name fmt.Stringer
		switch {
		case peer.Down:
			name = aurora.Red(peer.Name)
		case peer.Fails > 0:
			name = aurora.Yellow(peer.Name)
		default:
			name = aurora.Green(peer.Name)
		}
		fmt.Printf("  %-20s weight=%d/%d current=%d fails=%d/%d accessed=%s\n",
			name, peer.EffectiveWeight, peer.Weight, peer.CurrentWeight, peer.Fails, peer.MaxFails, peer.Accessed)
	}
}
