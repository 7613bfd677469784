package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich brewery pages with drive time and distance",
	Long:  "Computes drive time and miles from home for every page (run all) or one page (run single <id>).",
	// Unknown subcommands land here as args and get the usage text.
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var runAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Enrich every page in the brewery database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "enrich", false)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Controller.EnrichAll(ctx)
		writeSummary(os.Stdout, summary)
		if err != nil {
			return eris.Wrap(err, "run all")
		}

		zap.L().Info("enrichment complete",
			zap.Int("enriched", summary.Enriched),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
		)
		return nil
	},
}

var runSingleCmd = &cobra.Command{
	Use:   "single <page-id>",
	Short: "Enrich one page by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Help()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "enrich", false)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Controller.EnrichSingle(ctx, args[0])
		writeSummary(os.Stdout, summary)
		if err != nil {
			return eris.Wrap(err, "run single")
		}
		return nil
	},
}

func init() {
	runCmd.AddCommand(runAllCmd)
	runCmd.AddCommand(runSingleCmd)
	rootCmd.AddCommand(runCmd)
}
