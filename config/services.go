package config

import "time"

// ScorerConfig configures the HTTP client for the external scoring service.
type ScorerConfig struct {
	BaseURL                 string        `env:"BASE_URL"                  envDefault:"http://localhost:8090"`
	Timeout                 time.Duration `env:"TIMEOUT"                   envDefault:"10s"`
	Retries                 int           `env:"RETRIES"                   envDefault:"2"`
	Backoff                 time.Duration `env:"BACKOFF"                   envDefault:"500ms"`
	CircuitFailureThreshold int           `env:"CIRCUIT_FAILURE_THRESHOLD" envDefault:"5"`
	CircuitReset            time.Duration `env:"CIRCUIT_RESET"             envDefault:"30s"`
	ResultExpr              string        `env:"RESULT_EXPR"               envDefault:"data.ranking"`
}

// Sanitize applies guardrails to scorer configuration.
func (c *ScorerConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	if c.CircuitFailureThreshold <= 0 {
		c.CircuitFailureThreshold = 5
	}
	if c.CircuitReset <= 0 {
		c.CircuitReset = 30 * time.Second
	}
}

// MatchingConfig configures the matching orchestrator.
type MatchingConfig struct {
	// CandidateTTL bounds how long a memoized candidate list is served.
	CandidateTTL time.Duration `env:"CANDIDATE_TTL" envDefault:"2m"`
}

// Sanitize applies guardrails to matching configuration.
func (c *MatchingConfig) Sanitize() {
	if c.CandidateTTL <= 0 {
		c.CandidateTTL = 2 * time.Minute
	}
}

// PayrollConfig carries the deduction and fee rates. Defaults match the
// statutory rates; overrides exist for staging experiments.
type PayrollConfig struct {
	VATRate         float64 `env:"VAT_RATE"          envDefault:"0.18"`
	InsuranceRate   float64 `env:"INSURANCE_RATE"    envDefault:"0.02"`
	PensionRate     float64 `env:"PENSION_RATE"      envDefault:"0.05"`
	PlatformFeeRate float64 `env:"PLATFORM_FEE_RATE" envDefault:"0.05"`
	// RateTTL bounds how long billing serves a cached rate table.
	RateTTL time.Duration `env:"RATE_TTL" envDefault:"10m"`
}

// Sanitize applies guardrails to payroll configuration.
func (c *PayrollConfig) Sanitize() {
	clamp := func(r *float64, fallback float64) {
		if *r < 0 || *r >= 1 {
			*r = fallback
		}
	}
	clamp(&c.VATRate, 0.18)
	clamp(&c.InsuranceRate, 0.02)
	clamp(&c.PensionRate, 0.05)
	clamp(&c.PlatformFeeRate, 0.05)
	if c.RateTTL <= 0 {
		c.RateTTL = 10 * time.Minute
	}
}

// NotifierConfig configures the notification dispatcher.
type NotifierConfig struct {
	// DispatchTimeout bounds a single event's delivery fan-out.
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to notifier configuration.
func (c *NotifierConfig) Sanitize() {
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = 10 * time.Second
	}
}
