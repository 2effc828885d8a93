package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/charter")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.PlatformFeePercent)
	assert.Equal(t, "postgres://u:p@db:5432/charter", cfg.DatabaseURL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FeePercentRange(t *testing.T) {
	t.Setenv("PLATFORM_FEE_PERCENT", "140")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "pg")
	t.Setenv("POSTGRESQL_USER", "charter")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "charter")

	assert.Equal(t, "postgres://charter:p%40ss@pg:5432/charter?sslmode=disable", getDatabaseURL())
}
