package cmd

import (
	"context"
	"fmt"
	"os"

	"locallink-be/config"
	"locallink-be/logging"
	"locallink-be/models"

	"github.com/spf13/cobra"
)

// indexesCmd creates the collection indexes without starting the server.
var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

		pool := config.NewMongoPool(cfg.Mongo)
		defer func() {
			_ = pool.Disconnect(context.Background())
		}()

		db, err := pool.Database(cmd.Context())
		if err != nil {
			return err
		}
		if err := models.EnsureIndexes(cmd.Context(), db); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		logger.Info("indexes ensured", "database", cfg.Mongo.Database)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}
