package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solestore/solestore/app/services"
	"github.com/solestore/solestore/internal/kernel"
	"github.com/solestore/solestore/internal/server"
	"github.com/solestore/solestore/pkg/logger"
)

// solestore serve
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Start(cmd.Context(), logger.L)
		},
	}
}

// solestore route:list
func newRouteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "List the catalog API routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k := kernel.NewHTTPKernel(services.NewCatalogService(nil, services.CatalogOptions{}), kernel.Options{
				Logger: logger.Discard(),
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tNAME")
			fmt.Fprintln(w, "------\t----\t----")
			for _, r := range k.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Path, r.Name)
			}
			return w.Flush()
		},
	}
}
