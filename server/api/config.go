package api

import "time"

// Config defines runtime parameters for the HTTP API server.
type Config struct {
	ListenAddr        string        `mapstructure:"listen_addr"         yaml:"listen_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"        yaml:"read_timeout"`
	// Deployments block on receipts, so the write timeout has to outlast lsp.deploy_timeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// ShutdownTimeout is how long a stopping server waits for running deployments.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"     yaml:"idle_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes" yaml:"max_header_bytes"`
	CORS            bool          `mapstructure:"cors"             yaml:"cors"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":3000",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      8 * time.Minute,
		ShutdownTimeout:   8 * time.Minute,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}
