package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resetCmd)
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drops and recreates every table. All stored data is lost.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		log.Info().Str("driver", cfg.DBDriver).Msg("resetting database")
		if err := repo.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		log.Info().Msg("database reset completed")
		return nil
	},
}
