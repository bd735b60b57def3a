// Command triage classifies PayPal sandbox test failures outside of a test
// run: against a saved page, a live browser, or the payment log.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nbenliogludev/paypal-sandbox-triage/internal/config"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/debuglog"
)

var errNotClassified = errors.New("not classified")

type app struct {
	configPath string
	rulesPath  string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "triage",
		Short:         "Tell PayPal sandbox outages apart from shop defects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := debuglog.New(a.verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.logger = logger

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			if a.rulesPath == "" {
				a.rulesPath = cfg.RulesFile
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "triage.yaml", "config file")
	root.PersistentFlags().StringVar(&a.rulesPath, "rules", "", "rules file (default: built-in tables)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newClassifyCmd(a),
		newRulesCmd(a),
		newVerifyLogCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errNotClassified) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
