package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-intake/internal/common/config"
	"invoice-intake/internal/common/logger"
)

func minimalConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "invoice-intake-test", Version: "test"},
		Intake:  config.IntakeConfig{DefaultBrand: "dr-dent", UploadConcurrency: 2},
		Storage: config.StorageConfig{Provider: config.ProviderNone},
		Notion:  config.NotionConfig{Token: "secret", DatabaseID: "db-1", Status: "Pending"},
		Timeouts: config.TimeoutConfig{
			Upload: 1000, Sheets: 1000, Record: 1000, Notify: 1000,
		},
	}
}

func TestBuild_Minimal(t *testing.T) {
	a, err := Build(context.Background(), minimalConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Intake)
	assert.NotNil(t, a.Records)
	assert.Nil(t, a.Cache)
	assert.Equal(t, "dr-dent", a.Catalog.DefaultKey())

	checks := a.Checks()
	assert.Contains(t, checks, "notion")
	assert.NotContains(t, checks, "redis")
}

func TestBuild_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := minimalConfig()
	cfg.Redis = config.RedisConfig{Address: mr.Addr(), TTL: 60}

	a, err := Build(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Cache)
	checks := a.Checks()
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](context.Background()))
}

func TestBuild_MissingCatalogFile(t *testing.T) {
	cfg := minimalConfig()
	cfg.Intake.CatalogPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := Build(context.Background(), cfg, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brand catalog")
}
