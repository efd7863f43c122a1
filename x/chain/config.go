package chain

import "time"

// Config holds RPC and transaction settings shared by every deployment.
type Config struct {
	// DefaultRPCURL is used when a request carries no node url.
	DefaultRPCURL string `mapstructure:"default_rpc_url" yaml:"default_rpc_url"`
	// DialTimeout bounds connection setup for a per-request node url.
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`

	GasLimit            uint64  `mapstructure:"gas_limit"              yaml:"gas_limit"`
	DefaultGasPriceGwei float64 `mapstructure:"default_gas_price_gwei" yaml:"default_gas_price_gwei"`

	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"       yaml:"receipt_timeout"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval" yaml:"receipt_poll_interval"`
}

func DefaultConfig() Config {
	return Config{
		DefaultRPCURL:       "http://localhost:8545",
		DialTimeout:         10 * time.Second,
		GasLimit:            10_000_000, // Very high; lower it for wallets holding little native token.
		DefaultGasPriceGwei: 10,
		ReceiptTimeout:      3 * time.Minute,
		ReceiptPollInterval: 2 * time.Second,
	}
}
