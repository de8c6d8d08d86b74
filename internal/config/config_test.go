package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/app/reinvent/agentcore", cfg.ParamPrefix)
	assert.Equal(t, "agentcore", cfg.NamePrefix)
	assert.Equal(t, "agentcore-infra", cfg.InfraStack)
	assert.Equal(t, "agentcore-auth", cfg.AuthStack)
	assert.Equal(t, "./tools", cfg.ToolSourceDir)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, 20, cfg.APIRateRPS)
	assert.False(t, cfg.SkipRepackaging)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GROUNDWORK_NAME_PREFIX", "acme")
	t.Setenv("GROUNDWORK_PARALLELISM", "8")
	t.Setenv("GROUNDWORK_SKIP_REPACKAGING", "true")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.NamePrefix)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.True(t, cfg.SkipRepackaging)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("GROUNDWORK_PARALLELISM", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidRate(t *testing.T) {
	t.Setenv("GROUNDWORK_API_RPS", "-1")
	_, err := Load()
	assert.Error(t, err)
}
