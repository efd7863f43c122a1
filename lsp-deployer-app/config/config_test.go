package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "registry:\n  path: addresses.yaml\n"))
	require.NoError(t, err)

	def := Default()
	require.Equal(t, def.API.ListenAddr, cfg.API.ListenAddr)
	require.Equal(t, def.Chain.GasLimit, cfg.Chain.GasLimit)
	require.Equal(t, def.Chain.ReceiptTimeout, cfg.Chain.ReceiptTimeout)
	require.Equal(t, def.LSP.DerivationPath, cfg.LSP.DerivationPath)
	require.Equal(t, uint64(7200), cfg.LSP.DefaultLivenessSeconds)
	require.Equal(t, "addresses.yaml", cfg.Registry.Path)
	require.True(t, cfg.Metrics.Enabled)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("CHAIN_DEFAULT_RPC_URL", "http://geth:8545")

	cfg, err := Load(writeConfig(t, `
api:
  listen_addr: ":9000"
chain:
  gas_limit: 6000000
  default_gas_price_gwei: 1.5
  receipt_timeout: 90s
lsp:
  deploy_timeout: 4m
  history_size: 10
log:
  level: debug
`))
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.API.ListenAddr)
	require.Equal(t, uint64(6_000_000), cfg.Chain.GasLimit)
	require.InDelta(t, 1.5, cfg.Chain.DefaultGasPriceGwei, 1e-9)
	require.Equal(t, 90*time.Second, cfg.Chain.ReceiptTimeout)
	require.Equal(t, 4*time.Minute, cfg.LSP.DeployTimeout)
	require.Equal(t, 10, cfg.LSP.HistorySize)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "http://geth:8545", cfg.Chain.DefaultRPCURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:   "zero gas limit",
			mutate: func(c *Config) { c.Chain.GasLimit = 0 },
			errMsg: "chain.gas_limit",
		},
		{
			name:   "bad derivation path",
			mutate: func(c *Config) { c.LSP.DerivationPath = "m/44'/x" },
			errMsg: "lsp.derivation_path",
		},
		{
			name:   "deploy timeout below receipt timeout",
			mutate: func(c *Config) { c.LSP.DeployTimeout = time.Second },
			errMsg: "lsp.deploy_timeout",
		},
		{
			name: "deploy timeout covers a single receipt wait",
			mutate: func(c *Config) {
				c.LSP.DeployTimeout = c.Chain.ReceiptTimeout + c.Chain.DialTimeout
			},
			errMsg: "two chain.receipt_timeout waits",
		},
		{
			name: "deploy timeout covers both receipt waits",
			mutate: func(c *Config) {
				c.LSP.DeployTimeout = 2*c.Chain.ReceiptTimeout + c.Chain.DialTimeout
			},
		},
		{
			name:   "empty history",
			mutate: func(c *Config) { c.LSP.HistorySize = 0 },
			errMsg: "lsp.history_size",
		},
		{
			name:   "no registry",
			mutate: func(c *Config) { c.Registry.Path = " " },
			errMsg: "registry.path",
		},
		{
			name:   "relative metrics path",
			mutate: func(c *Config) { c.Metrics.Path = "metrics" },
			errMsg: "metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "config.yaml"))
	require.NoError(t, err)
	require.True(t, cfg.API.CORS)
	require.GreaterOrEqual(t, cfg.API.WriteTimeout, cfg.RequestTimeoutHint())
}
