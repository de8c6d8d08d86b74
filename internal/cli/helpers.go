package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/config"
	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/providers/aws"
	"github.com/groundwork-io/groundwork/providers/memory"
)

// applyOverrides layers positional arguments over the environment
// configuration: [prefix [infra-stack [auth-stack]]].
func applyOverrides(cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.NamePrefix = args[0]
	}
	if len(args) > 1 {
		cfg.InfraStack = args[1]
	}
	if len(args) > 2 {
		cfg.AuthStack = args[2]
	}
}

// buildEnvironment returns the cloud environment and its parameter
// store. Dry runs get the in-memory fake so no remote call is made.
func buildEnvironment(ctx context.Context, cfg *config.Config, dryRun bool) (cloud.Environment, cloud.ParameterStore, error) {
	if dryRun {
		m := memory.New()
		return m, m, nil
	}
	env, err := aws.New(ctx, cfg.Region, cfg.APIRateRPS)
	if err != nil {
		return nil, nil, err
	}
	return env, env.Parameters(), nil
}

// buildCatalog resolves the account and assembles the descriptor set
// for the configured environment.
func buildCatalog(ctx context.Context, cfg *config.Config, env cloud.Environment) (*descriptor.Set, error) {
	account, err := env.Account(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	sourceDir, err := filepath.Abs(cfg.ToolSourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tool source dir: %w", err)
	}

	return descriptor.Catalog(descriptor.CatalogParams{
		NamePrefix: cfg.NamePrefix,
		InfraStack: cfg.InfraStack,
		AuthStack:  cfg.AuthStack,
		Region:     env.Region(),
		Account:    account,
		SourceDir:  sourceDir,
	}), nil
}

// bundleDir is where packaged bundles are written between runs.
func bundleDir() string {
	return filepath.Join(os.TempDir(), "groundwork-bundles")
}
