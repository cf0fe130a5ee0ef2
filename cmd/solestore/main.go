package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/solestore/solestore/database/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "solestore",
		Short:         "Shoe storefront asset pipeline and catalog API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Server
	root.AddCommand(newServeCmd())
	root.AddCommand(newRouteListCmd())

	// Database
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newMigrateRollbackCmd())
	root.AddCommand(newMigrateStatusCmd())
	root.AddCommand(newSeedCmd())

	// Assets
	root.AddCommand(newAssetProcessCmd())
	root.AddCommand(newAssetBatchCmd())
	root.AddCommand(newAssetVerifyCmd())
	return root
}
