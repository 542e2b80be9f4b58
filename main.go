// File: main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/fpcrawl/cmd"
)

func main() {
	// Commands receive a signal-aware context so Ctrl-C stops an
	// in-flight crawl cleanly instead of killing the process mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
