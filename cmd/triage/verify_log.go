package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbenliogludev/paypal-sandbox-triage/internal/shoplog"
)

func newVerifyLogCmd(a *app) *cobra.Command {
	var (
		logPath  string
		request  map[string]string
		response map[string]string
	)

	cmd := &cobra.Command{
		Use:   "verify-log",
		Short: "Check the last request/response pair of the payment log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if logPath == "" {
				logPath = a.cfg.PaymentLog
			}
			entries, err := shoplog.NewStore(logPath).Entries()
			if err != nil {
				return err
			}
			if err := shoplog.VerifyLastExchange(entries, request, response); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d entries, last exchange matches\n", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "payment log (default from config)")
	cmd.Flags().StringToStringVar(&request, "request", nil, "expected request values, key=value")
	cmd.Flags().StringToStringVar(&response, "response", nil, "expected response values, key=value")
	return cmd
}
