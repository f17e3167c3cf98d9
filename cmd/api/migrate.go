package main

import (
	"context"

	"partner-edge/internal/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the connection store schema and the orders table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(logger)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close(context.Background())

		if err := st.migrate(ctx); err != nil {
			return err
		}
		logger.Info().Str("store", cfg.ConnectionStore).Msg("Connection store migrated")

		orders, err := newOrderStore(cfg)
		if err != nil {
			return err
		}
		if err := orders.EnsureTable(ctx); err != nil {
			return err
		}
		logger.Info().Str("table", cfg.OrdersTable).Msg("Orders table ready")
		return nil
	},
}
