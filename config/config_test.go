package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Scorer.Timeout)
	assert.Equal(t, "data.ranking", cfg.Scorer.ResultExpr)
	assert.Equal(t, 2*time.Minute, cfg.Matching.CandidateTTL)
	assert.InDelta(t, 0.18, cfg.Payroll.VATRate, 1e-9)
	assert.InDelta(t, 0.05, cfg.Payroll.PlatformFeeRate, 1e-9)
}

func TestAppConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SCORER_TIMEOUT", "3s")
	t.Setenv("PAYROLL_VAT_RATE", "0.20")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 3*time.Second, cfg.Scorer.Timeout)
	assert.InDelta(t, 0.20, cfg.Payroll.VATRate, 1e-9)
}

func TestSanitize_ClampsInvalidValues(t *testing.T) {
	cfg := AppConfig{
		Scorer:   ScorerConfig{Timeout: -time.Second, Retries: -3},
		Matching: MatchingConfig{CandidateTTL: 0},
		Payroll:  PayrollConfig{VATRate: 1.5, InsuranceRate: -0.1},
		Notifier: NotifierConfig{DispatchTimeout: 0},
	}
	cfg.Sanitize()

	assert.Equal(t, 10*time.Second, cfg.Scorer.Timeout)
	assert.Equal(t, 0, cfg.Scorer.Retries)
	assert.Equal(t, 2*time.Minute, cfg.Matching.CandidateTTL)
	assert.InDelta(t, 0.18, cfg.Payroll.VATRate, 1e-9)
	assert.InDelta(t, 0.02, cfg.Payroll.InsuranceRate, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Notifier.DispatchTimeout)
}

func TestDBConfig_DSN(t *testing.T) {
	dsn := DBConfig{
		Host: "localhost", Port: 5432, User: "hausmate",
		Password: "secret", Name: "hausmate", SSLMode: "disable",
	}.DSN()
	assert.Equal(t,
		"host=localhost port=5432 user=hausmate password=secret dbname=hausmate sslmode=disable",
		dsn)
}

func TestDetectDevMode_NodeEnvFallback(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()
	assert.True(t, cfg.IsDev)
}
