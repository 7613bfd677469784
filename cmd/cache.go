package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the route cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired route cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.DeleteExpiredRoutes(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "cache prune")
		}

		zap.L().Info("route cache pruned", zap.Int("deleted", n))
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired routes.\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
