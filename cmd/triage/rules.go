package main

import (
	"github.com/spf13/cobra"

	"github.com/nbenliogludev/paypal-sandbox-triage/internal/triage"
)

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective fragments and symptom groups as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := triage.LoadRules(a.rulesPath)
			if err != nil {
				return err
			}
			out, err := rules.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
