package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or reset the stored contribution history",
	}

	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored history",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.load(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			h, err := rt.repo.Load(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, h)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "KEY\t%s\n", rt.repo.Key())
			for _, date := range h.Keys() {
				fmt.Fprintf(tw, "%s\t%+.3f\n", date, h[date])
			}
			return tw.Flush()
		},
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	var confirm bool
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the stored history of the current version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to purge without --yes")
			}
			rt, err := g.load(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.repo.Purge(cmd.Context()); err != nil {
				return err
			}
			log.Info().Str("key", rt.repo.Key()).Msg("history purged")
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", rt.repo.Key())
			return nil
		},
	}
	purgeCmd.Flags().BoolVar(&confirm, "yes", false, "Confirm the purge")

	historyCmd.AddCommand(showCmd, purgeCmd)
	return historyCmd
}
