package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sx-network/lsp-deployer/log"
	"github.com/sx-network/lsp-deployer/lsp-deployer-app/config"
)

const defaultConfigPath = "lsp-deployer-app/configs/config.yaml"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "lsp-deployer",
		Short: "UMA Long Short Pair deployer",
		Long:  "HTTP service that deploys UMA Long Short Pair contracts and configures their financial product library.",
		RunE:  runApp,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion,
	}
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute() error {
	initCommands()
	return rootCmd.Execute()
}

func initCommands() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newDeployCmd(serviceFactory()))

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "enable pretty logging")

	// Chain flags
	rootCmd.PersistentFlags().String("rpc-url", "", "node url used when a request has none")
	rootCmd.PersistentFlags().String("registry", "", "UMA address book file")

	// Server flags
	rootCmd.Flags().String("listen-addr", "", "HTTP API listen address")
	rootCmd.Flags().Bool("metrics", false, "expose prometheus metrics")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = defaultConfigPath
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := log.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("go_version", runtime.Version()).
		Msg("Build information")

	log.Info().
		Str("config_file", cfgFile).
		Str("listen_addr", cfg.API.ListenAddr).
		Str("default_rpc_url", cfg.Chain.DefaultRPCURL).
		Str("registry", cfg.Registry.Path).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Str("log_level", cfg.Log.Level).
		Msg("Configuration loaded")

	application, err := NewApp(cmd.Context(), cfg, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(cmd.Context())
}

func runVersion(*cobra.Command, []string) {
	fmt.Printf("LSP Deployer\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if f := flags.Lookup("log-pretty"); f != nil && f.Changed {
		cfg.Log.Pretty, _ = flags.GetBool("log-pretty")
	}

	if f := flags.Lookup("rpc-url"); f != nil && f.Changed {
		cfg.Chain.DefaultRPCURL, _ = flags.GetString("rpc-url")
	}
	if f := flags.Lookup("registry"); f != nil && f.Changed {
		cfg.Registry.Path, _ = flags.GetString("registry")
	}

	if f := flags.Lookup("listen-addr"); f != nil && f.Changed {
		cfg.API.ListenAddr, _ = flags.GetString("listen-addr")
	}
	if f := flags.Lookup("metrics"); f != nil && f.Changed {
		cfg.Metrics.Enabled, _ = flags.GetBool("metrics")
	}
}
