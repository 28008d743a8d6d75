package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresConfig_GetDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "umkm",
		Password: "secret",
		Database: "umkm_platform",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=umkm password=secret dbname=umkm_platform sslmode=require",
		cfg.GetDSN())
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "umkm-assessment-workers", cfg.App.Name)
	assert.Equal(t, 9090, cfg.App.MetricsPort)
	assert.Equal(t, "localhost:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.Addresses)
	assert.Equal(t, "assessment-scores", cfg.Search.ScoreIndex)
	assert.NotNil(t, cfg.Workers)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.App.MetricsPort = 8081
	cfg.Search.ScoreIndex = "scores-v2"

	applyDefaults(cfg)

	assert.Equal(t, 8081, cfg.App.MetricsPort)
	assert.Equal(t, "scores-v2", cfg.Search.ScoreIndex)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Database.Postgres.Host = "localhost"
		cfg.Database.Postgres.Database = "umkm_platform"
		applyDefaults(cfg)
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validateConfig(base()))
	})

	t.Run("missing postgres host", func(t *testing.T) {
		cfg := base()
		cfg.Database.Postgres.Host = ""
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("missing postgres database", func(t *testing.T) {
		cfg := base()
		cfg.Database.Postgres.Database = ""
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("notify worker requires sender email", func(t *testing.T) {
		cfg := base()
		cfg.Workers["notify-assessment-result"] = WorkerConfig{Enabled: true}
		assert.Error(t, validateConfig(cfg))

		cfg.Notifications.SenderEmail = "noreply@example.com"
		assert.NoError(t, validateConfig(cfg))
	})
}
