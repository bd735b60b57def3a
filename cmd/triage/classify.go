package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nbenliogludev/paypal-sandbox-triage/internal/browser"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/triage"
)

func newClassifyCmd(a *app) *cobra.Command {
	var (
		message  string
		htmlPath string
		devtools string
		savePath string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a failure message against a page",
		Long: `Checks whether a failure message is a known sandbox symptom and whether
the page shows one of the sandbox error pages. The page is either a saved
HTML file or the current tab of a browser reachable over DevTools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if devtools == "" {
				devtools = a.cfg.Browser.DevtoolsURL
			}
			if (htmlPath == "") == (devtools == "") {
				return errors.New("exactly one of --html and --devtools is required")
			}

			rules, err := triage.LoadRules(a.rulesPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var page triage.Page
			if htmlPath != "" {
				static, err := browser.LoadStatic(htmlPath)
				if err != nil {
					return fmt.Errorf("load page: %w", err)
				}
				page = static
			} else {
				remote, err := browser.NewRemote(devtools)
				if err != nil {
					return err
				}
				defer remote.Close()

				if a.cfg.Browser.Timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, a.cfg.Browser.Timeout)
					defer cancel()
				}

				if savePath != "" {
					src, err := remote.HTML(ctx)
					if err != nil {
						return err
					}
					if err := os.WriteFile(savePath, []byte(src), 0o644); err != nil {
						return fmt.Errorf("save page: %w", err)
					}
				}
				page = remote
			}

			classifier, err := triage.New(page, rules)
			if err != nil {
				return err
			}
			explanation, ok, err := classifier.Classify(ctx, message)
			if err != nil {
				return err
			}
			a.logger.Debug("classified",
				zap.String("message", message),
				zap.Bool("sandbox_issue", ok))
			if !ok {
				return errNotClassified
			}
			fmt.Fprintln(cmd.OutOrStdout(), explanation)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "failure message of the test")
	cmd.Flags().StringVar(&htmlPath, "html", "", "saved page source")
	cmd.Flags().StringVar(&devtools, "devtools", "", "DevTools websocket URL of a running browser")
	cmd.Flags().StringVar(&savePath, "save", "", "write the live page source to this file")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
