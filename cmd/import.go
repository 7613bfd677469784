package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importEnrich bool
	importState  string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import breweries from Open Brewery DB into Notion",
	Long:  "Fetches every brewery for a state and creates or updates its Notion page. With --enrich the enrichment sweep runs afterwards.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if importState != "" {
			cfg.OpenBrewery.State = importState
		}

		env, err := initEnv(ctx, "import", importEnrich)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Controller.ImportAll(ctx)
		writeSummary(os.Stdout, summary)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.String("state", cfg.OpenBrewery.State),
			zap.Int("created", summary.Created),
			zap.Int("updated", summary.Updated),
			zap.Int("failed", summary.Failed),
		)

		if !importEnrich {
			return nil
		}

		summary, err = env.Controller.EnrichAll(ctx)
		writeSummary(os.Stdout, summary)
		if err != nil {
			return eris.Wrap(err, "import enrich")
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importEnrich, "enrich", false, "run the enrichment sweep after importing")
	importCmd.Flags().StringVar(&importState, "state", "", "state to import (defaults to openbrewery.state)")
	rootCmd.AddCommand(importCmd)
}
