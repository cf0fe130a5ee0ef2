package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/solestore/solestore/app/services"
	"github.com/solestore/solestore/config"
	"github.com/solestore/solestore/pkg/cache"
	"github.com/solestore/solestore/pkg/database"
	"github.com/solestore/solestore/pkg/logger"
	"github.com/solestore/solestore/pkg/migration"
)

// withDB loads config, opens the store and closes it after fn.
func withDB(ctx context.Context, fn func(db *gorm.DB) error) error {
	if err := config.Load(); err != nil {
		return err
	}
	db, err := database.Connect(ctx)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck
	return fn(db)
}

// solestore migrate
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run all pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				n, err := migration.New(db, cmd.OutOrStdout()).Run(cmd.Context())
				if err != nil {
					return err
				}
				if n == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
				}
				return nil
			})
		},
	}
}

// solestore migrate:rollback
func newMigrateRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:rollback",
		Short: "Roll back the last batch of migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				n, err := migration.New(db, cmd.OutOrStdout()).Rollback(cmd.Context())
				if err != nil {
					return err
				}
				if n == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to roll back.")
				}
				return nil
			})
		},
	}
}

// solestore migrate:status
func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "Show the status of each migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				return migration.New(db, cmd.OutOrStdout()).PrintStatus(cmd.Context())
			})
		},
	}
}

// solestore seed
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace the catalog with the sample products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				store, err := cache.Connect(cmd.Context())
				if err != nil {
					logger.Warn("cache unavailable, seeding without invalidation", "error", err)
					store = cache.Nop{}
				}
				svc := services.NewCatalogService(db, services.CatalogOptions{
					Cache:   store,
					Timeout: config.DatabaseTimeout(),
				})
				return svc.Seed(cmd.Context(), cmd.OutOrStdout())
			})
		},
	}
}
