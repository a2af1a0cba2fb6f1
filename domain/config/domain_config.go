package config

import "fmt"

// DomainConfig holds the editor tunables and graph rules
type DomainConfig struct {
	// Polyline simplification
	AngleEpsilonDegrees float64 `yaml:"angle_epsilon_degrees"`
	DistanceEpsilon     float64 `yaml:"distance_epsilon"`

	// Hit-testing, in image pixels
	AutoFinishTolerance float64 `yaml:"auto_finish_tolerance"`
	NodeHitRadius       float64 `yaml:"node_hit_radius"`

	// Floors
	DefaultFloor int `yaml:"default_floor"`

	// Aliases
	MaxAliasLength     int `yaml:"max_alias_length"`
	DefaultSearchLimit int `yaml:"default_search_limit"`
	MaxSearchLimit     int `yaml:"max_search_limit"`
	MinSearchScore     int `yaml:"min_search_score"`
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		AngleEpsilonDegrees: 5,
		DistanceEpsilon:     0.01,

		AutoFinishTolerance: 20,
		NodeHitRadius:       6,

		DefaultFloor: 1,

		MaxAliasLength:     200,
		DefaultSearchLimit: 5,
		MaxSearchLimit:     50,
		MinSearchScore:     0,
	}
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	cfg := DefaultDomainConfig()
	if environment == "production" {
		cfg.MaxSearchLimit = 20
	}
	return cfg
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.AngleEpsilonDegrees < 0 || c.AngleEpsilonDegrees >= 180 {
		return fmt.Errorf("angle epsilon must be in [0, 180), got %v", c.AngleEpsilonDegrees)
	}
	if c.DistanceEpsilon < 0 {
		return fmt.Errorf("distance epsilon must not be negative, got %v", c.DistanceEpsilon)
	}
	if c.AutoFinishTolerance <= 0 || c.NodeHitRadius <= 0 {
		return fmt.Errorf("hit tolerances must be positive")
	}
	if c.DefaultFloor <= 0 {
		return fmt.Errorf("default floor must be positive, got %d", c.DefaultFloor)
	}
	if c.MinSearchScore < 0 || c.MinSearchScore > 100 {
		return fmt.Errorf("min search score must be in [0, 100], got %d", c.MinSearchScore)
	}
	if c.DefaultSearchLimit <= 0 || c.MaxSearchLimit < c.DefaultSearchLimit {
		return fmt.Errorf("invalid search limits %d/%d", c.DefaultSearchLimit, c.MaxSearchLimit)
	}
	return nil
}
