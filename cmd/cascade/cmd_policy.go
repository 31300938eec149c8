package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/cascade/internal/config"
)

func newPolicyCmd(g *globalOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Print the effective policy as YAML",
		Long: `Print the effective policy: the defaults overlaid with --policy.
With --out the policy is written to a file instead, which is a convenient
starting point for tuning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := config.DefaultPolicy()
			if g.policyPath != "" {
				p, err := config.LoadPolicy(g.policyPath)
				if err != nil {
					return err
				}
				policy = p
			}
			if out != "" {
				if err := config.SavePolicy(policy, out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
				return nil
			}
			data, err := policy.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write the policy to this file")
	return cmd
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
