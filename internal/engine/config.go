package engine

import "time"

// EngineConfig contains configurable parameters for the interaction engine.
// Use DefaultEngineConfig() to get sensible defaults, then override as needed.
type EngineConfig struct {
	// Timeout settings
	PathwayTimeout time.Duration // Per-evaluator deadline (default: 10s)
	CheckTimeout   time.Duration // Whole-check deadline (default: 45s)

	// Snapshot limits
	MaxIDSetSize int // Maximum supplements or medications per check (default: 50)

	// Feature flags
	EnableSafeNotes bool // Whether SAFE results get shared-ingredient notes (default: true)
}

// DefaultEngineConfig returns an EngineConfig with sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		// Timeouts
		PathwayTimeout: 10 * time.Second,
		CheckTimeout:   45 * time.Second,

		// Limits
		MaxIDSetSize: 50,

		// Features
		EnableSafeNotes: true,
	}
}

// WithPathwayTimeout returns a copy of the config with modified per-evaluator deadline.
func (c EngineConfig) WithPathwayTimeout(d time.Duration) EngineConfig {
	c.PathwayTimeout = d
	return c
}

// WithCheckTimeout returns a copy of the config with modified whole-check deadline.
func (c EngineConfig) WithCheckTimeout(d time.Duration) EngineConfig {
	c.CheckTimeout = d
	return c
}

// WithMaxIDSetSize returns a copy of the config with modified snapshot limit.
func (c EngineConfig) WithMaxIDSetSize(n int) EngineConfig {
	c.MaxIDSetSize = n
	return c
}

// WithSafeNotes returns a copy of the config with SAFE-note lookups enabled/disabled.
func (c EngineConfig) WithSafeNotes(enabled bool) EngineConfig {
	c.EnableSafeNotes = enabled
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
func (c EngineConfig) Validate() error {
	if c.PathwayTimeout <= 0 {
		return &ConfigError{Field: "PathwayTimeout", Message: "must be positive"}
	}
	if c.CheckTimeout <= 0 {
		return &ConfigError{Field: "CheckTimeout", Message: "must be positive"}
	}
	if c.CheckTimeout < c.PathwayTimeout {
		return &ConfigError{Field: "CheckTimeout", Message: "must not be shorter than PathwayTimeout"}
	}
	if c.MaxIDSetSize <= 0 {
		return &ConfigError{Field: "MaxIDSetSize", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}
