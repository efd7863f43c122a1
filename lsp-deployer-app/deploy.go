package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sx-network/lsp-deployer/log"
	"github.com/sx-network/lsp-deployer/lsp-deployer-app/config"
	"github.com/sx-network/lsp-deployer/x/lsp"
)

// deployerFactory builds the deployer the deploy command runs against.
type deployerFactory func(cfg *config.Config, log zerolog.Logger) (lsp.Deployer, error)

// serviceFactory builds the same service the API uses.
func serviceFactory(opts ...lsp.Option) deployerFactory {
	return func(cfg *config.Config, log zerolog.Logger) (lsp.Deployer, error) {
		_, svc, err := newDeployer(cfg, log, opts...)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}

// newDeployCmd runs a single deployment from a JSON request file and prints the result.
// On failure whatever reached the chain is still printed before the error is returned.
func newDeployCmd(newDeployerFn deployerFactory) *cobra.Command {
	var (
		requestFile string
		simulate    bool
		mnemonicEnv string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy one Long Short Pair from a request file",
		Long: "Reads a POST /lsp/deploy body from --request and runs the same deployment the API would.\n" +
			"The mnemonic can be supplied through an environment variable so it stays out of the file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := log.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)

			raw, err := os.ReadFile(requestFile)
			if err != nil {
				return fmt.Errorf("failed to read request file: %w", err)
			}
			var req lsp.DeployRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("failed to decode request file %s: %w", requestFile, err)
			}
			if simulate {
				req.Simulate = true
			}
			if mnemonicEnv != "" {
				if m := os.Getenv(mnemonicEnv); m != "" {
					req.Mnemonic = m
				}
			}

			deployer, err := newDeployerFn(cfg, logger.Logger)
			if err != nil {
				return err
			}

			d, deployErr := deployer.Deploy(cmd.Context(), req)
			if d != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(d); err != nil {
					return fmt.Errorf("failed to write result: %w", err)
				}
			}
			return deployErr
		},
	}

	cmd.Flags().StringVar(&requestFile, "request", "", "path to a JSON deploy request")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "only simulate, send no transactions")
	cmd.Flags().StringVar(&mnemonicEnv, "mnemonic-env", "LSP_DEPLOYER_MNEMONIC", "environment variable holding the mnemonic")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}
