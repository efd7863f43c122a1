package lsp

import (
	"time"

	"github.com/sx-network/lsp-deployer/x/wallet"
)

// Config controls deployment behavior independent of the target node.
type Config struct {
	// DerivationPath selects the HD account used for mnemonic based requests.
	DerivationPath string `mapstructure:"derivation_path" yaml:"derivation_path"`
	// DeployTimeout bounds a whole deployment including both receipt waits.
	DeployTimeout time.Duration `mapstructure:"deploy_timeout" yaml:"deploy_timeout"`
	// DefaultLivenessSeconds applies when a request has no optimisticOracleLivenessTime.
	DefaultLivenessSeconds uint64 `mapstructure:"default_liveness_seconds" yaml:"default_liveness_seconds"`
	// HistorySize is how many deployment records the API keeps.
	HistorySize int `mapstructure:"history_size" yaml:"history_size"`
}

func DefaultConfig() Config {
	return Config{
		DerivationPath:         wallet.DefaultDerivationPath,
		DeployTimeout:          7 * time.Minute,
		DefaultLivenessSeconds: 7200,
		HistorySize:            256,
	}
}
