// Package config holds runtime settings sourced from environment
// variables, with CLI flags layered on top by the caller.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process-level configuration. Positional CLI arguments
// override NamePrefix, InfraStack, and AuthStack after Load.
type Config struct {
	ParamPrefix      string `env:"GROUNDWORK_PARAM_PREFIX" envDefault:"/app/reinvent/agentcore"`
	NamePrefix       string `env:"GROUNDWORK_NAME_PREFIX" envDefault:"agentcore"`
	InfraStack       string `env:"GROUNDWORK_INFRA_STACK" envDefault:"agentcore-infra"`
	AuthStack        string `env:"GROUNDWORK_AUTH_STACK" envDefault:"agentcore-auth"`
	ToolSourceDir    string `env:"GROUNDWORK_TOOL_SOURCE" envDefault:"./tools"`
	Parallelism      int    `env:"GROUNDWORK_PARALLELISM" envDefault:"4"`
	APIRateRPS       int    `env:"GROUNDWORK_API_RPS" envDefault:"20"`
	SkipRepackaging  bool   `env:"GROUNDWORK_SKIP_REPACKAGING" envDefault:"false"`
	LogLevel         string `env:"GROUNDWORK_LOG_LEVEL" envDefault:"info"`
	Region           string `env:"AWS_REGION"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.Parallelism < 1 {
		return nil, fmt.Errorf("parallelism must be at least 1, got %d", cfg.Parallelism)
	}
	if cfg.APIRateRPS < 1 {
		return nil, fmt.Errorf("api rate must be at least 1 request/s, got %d", cfg.APIRateRPS)
	}
	return &cfg, nil
}
