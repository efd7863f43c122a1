package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/spf13/viper"

	apisrv "github.com/sx-network/lsp-deployer/server/api"
	"github.com/sx-network/lsp-deployer/x/chain"
	"github.com/sx-network/lsp-deployer/x/lsp"
)

// Config holds the complete application configuration
type Config struct {
	API      apisrv.Config  `mapstructure:"api"      yaml:"api"`
	Chain    chain.Config   `mapstructure:"chain"    yaml:"chain"`
	LSP      lsp.Config     `mapstructure:"lsp"      yaml:"lsp"`
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
	Log      LogConfig      `mapstructure:"log"      yaml:"log"`
}

// RegistryConfig points at the UMA address book.
type RegistryConfig struct {
	Path string `mapstructure:"path" yaml:"path" env:"REGISTRY_PATH"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `mapstructure:"path"    yaml:"path"    env:"METRICS_PATH"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  env:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" env:"LOG_PRETTY"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("api.listen_addr", def.API.ListenAddr)
	v.SetDefault("api.read_header_timeout", def.API.ReadHeaderTimeout.String())
	v.SetDefault("api.read_timeout", def.API.ReadTimeout.String())
	v.SetDefault("api.write_timeout", def.API.WriteTimeout.String())
	v.SetDefault("api.shutdown_timeout", def.API.ShutdownTimeout.String())
	v.SetDefault("api.idle_timeout", def.API.IdleTimeout.String())
	v.SetDefault("api.max_header_bytes", def.API.MaxHeaderBytes)
	v.SetDefault("api.cors", def.API.CORS)

	v.SetDefault("chain.default_rpc_url", def.Chain.DefaultRPCURL)
	v.SetDefault("chain.dial_timeout", def.Chain.DialTimeout.String())
	v.SetDefault("chain.gas_limit", def.Chain.GasLimit)
	v.SetDefault("chain.default_gas_price_gwei", def.Chain.DefaultGasPriceGwei)
	v.SetDefault("chain.receipt_timeout", def.Chain.ReceiptTimeout.String())
	v.SetDefault("chain.receipt_poll_interval", def.Chain.ReceiptPollInterval.String())

	v.SetDefault("lsp.derivation_path", def.LSP.DerivationPath)
	v.SetDefault("lsp.deploy_timeout", def.LSP.DeployTimeout.String())
	v.SetDefault("lsp.default_liveness_seconds", def.LSP.DefaultLivenessSeconds)
	v.SetDefault("lsp.history_size", def.LSP.HistorySize)

	v.SetDefault("registry.path", def.Registry.Path)

	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.path", def.Metrics.Path)

	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.pretty", def.Log.Pretty)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateChain(); err != nil {
		return err
	}
	if err := c.validateLSP(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Registry.Path) == "" {
		return fmt.Errorf("registry.path is required")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if strings.TrimSpace(c.API.ListenAddr) == "" {
		return fmt.Errorf("api.listen_addr is required")
	}
	if c.API.ReadTimeout <= 0 {
		return fmt.Errorf("api.read_timeout must be positive")
	}
	if c.API.WriteTimeout <= 0 {
		return fmt.Errorf("api.write_timeout must be positive")
	}
	return nil
}

func (c *Config) validateChain() error {
	if strings.TrimSpace(c.Chain.DefaultRPCURL) == "" {
		return fmt.Errorf("chain.default_rpc_url is required")
	}
	if c.Chain.GasLimit == 0 {
		return fmt.Errorf("chain.gas_limit must be positive")
	}
	if c.Chain.DefaultGasPriceGwei < 0 {
		return fmt.Errorf("chain.default_gas_price_gwei must not be negative, got %v", c.Chain.DefaultGasPriceGwei)
	}
	if c.Chain.ReceiptTimeout <= 0 {
		return fmt.Errorf("chain.receipt_timeout must be positive")
	}
	if c.Chain.ReceiptPollInterval <= 0 {
		return fmt.Errorf("chain.receipt_poll_interval must be positive")
	}
	return nil
}

func (c *Config) validateLSP() error {
	if _, err := accounts.ParseDerivationPath(c.LSP.DerivationPath); err != nil {
		return fmt.Errorf("lsp.derivation_path %q: %w", c.LSP.DerivationPath, err)
	}
	if c.LSP.HistorySize <= 0 {
		return fmt.Errorf("lsp.history_size must be positive, got %d", c.LSP.HistorySize)
	}
	if c.LSP.DefaultLivenessSeconds == 0 {
		return fmt.Errorf("lsp.default_liveness_seconds must be positive")
	}
	// A deployment dials once and waits for two receipts.
	if need := 2*c.Chain.ReceiptTimeout + c.Chain.DialTimeout; c.LSP.DeployTimeout > 0 && c.LSP.DeployTimeout < need {
		return fmt.Errorf("lsp.deploy_timeout (%s) must cover two chain.receipt_timeout waits plus chain.dial_timeout (%s)",
			c.LSP.DeployTimeout, need)
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		API:   apisrv.DefaultConfig(),
		Chain: chain.DefaultConfig(),
		LSP:   lsp.DefaultConfig(),
		Registry: RegistryConfig{
			Path: "lsp-deployer-app/configs/addresses.yaml",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// RequestTimeoutHint is the write timeout a deploy request needs to finish in.
func (c *Config) RequestTimeoutHint() time.Duration {
	return c.LSP.DeployTimeout + c.Chain.DialTimeout
}
