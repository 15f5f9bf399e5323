// itemvault serves an authenticated item CRUD API.
//
// Users sign up with a username and password, log in for a short-lived
// access token and a longer-lived refresh token, and manage a shared
// collection of items. Storage is in-memory, SQLite or Redis; item events
// can also be published to MQTT, recorded in InfluxDB and streamed over
// WebSocket.
//
// Usage:
//
//	itemvault [--config path] [serve]
//	itemvault [--config path] migrate up|down|status
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Running with no command serves the API.
func newApp() *cli.App {
	return &cli.App{
		Name:    "itemvault",
		Usage:   "authenticated item CRUD API",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"ITEMVAULT_CONFIG"},
				Value:   defaultConfigPath,
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
		Action: serveAction,
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API (default)",
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	return run(c.Context, c.String("config"))
}
