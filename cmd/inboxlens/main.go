// Command inboxlens derives engagement tables from a chat-export archive.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/runnerr0/inboxlens/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The go-flags parser prints every error it returns, including the
	// ones commands return from Execute.
	if err := cli.Run(ctx, version); err != nil {
		stop()
		os.Exit(1)
	}
}
