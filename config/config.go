// Package config loads application configuration from environment variables
// using github.com/caarlos0/env. Each domain keeps its own sub-config with a
// Sanitize guardrail applied after parsing.
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// See individual domain config files for the available variables:
//   - database.go: PostgreSQL and Redis configuration
//   - services.go: matching, scoring, payroll, and notifier configuration
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Scoring service client configuration
	Scorer ScorerConfig `envPrefix:"SCORER_"`

	// Matching orchestrator configuration
	Matching MatchingConfig `envPrefix:"MATCHING_"`

	// Payroll rate configuration
	Payroll PayrollConfig `envPrefix:"PAYROLL_"`

	// Notification dispatcher configuration
	Notifier NotifierConfig `envPrefix:"NOTIFIER_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Scorer.Sanitize()
	c.Matching.Sanitize()
	c.Payroll.Sanitize()
	c.Notifier.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
