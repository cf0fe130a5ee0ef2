// Command server runs only the catalog HTTP server, for images that do not
// need the asset tooling.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/solestore/solestore/internal/server"
	"github.com/solestore/solestore/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, logger.L); err != nil {
		logger.Error("server stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
