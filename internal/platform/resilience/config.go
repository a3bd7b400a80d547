package resilience

import "time"

// StateChangeFunc observes breaker transitions. It runs after the breaker lock is released.
type StateChangeFunc func(name string, from, to CircuitState)

type CircuitBreakerConfig struct {
	Name             string
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
	OnStateChange    StateChangeFunc
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

// Normalize fills zero or invalid thresholds with defaults, keeping Name and OnStateChange.
func (cfg CircuitBreakerConfig) Normalize() CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}

// WithStateChange returns a copy of cfg that reports transitions to fn.
func (cfg CircuitBreakerConfig) WithStateChange(fn StateChangeFunc) CircuitBreakerConfig {
	cfg.OnStateChange = fn
	return cfg
}
