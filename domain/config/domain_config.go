package config

import "fmt"

// DomainConfig holds all configurable business rules of map building
type DomainConfig struct {
	// Input constraints
	MinOptions int
	MaxOptions int

	// Synthesis
	WindowBase        int
	WindowSpread      int
	MaxGraphStates    int
	MergedNodeCap     int
	MinPerOption      int
	MaxPerOption      int
	DedupeSimilarity  float64
	IrreversibleAxisW int

	// Scoring
	AxisBase              int
	SignalAxisFloor       int
	ConfidenceConstraints int
	EvidenceLimit         int

	// Grounding
	OverlapThreshold   float64
	RelevanceThreshold float64
	RewriteBatchSize   int
	MinDetailLength    int
	MinTitleLength     int
	WeakTitleLength    int
	ShortTitleLength   int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Input constraints
		MinOptions: 2,
		MaxOptions: 4,

		// Synthesis
		WindowBase:        5,
		WindowSpread:      3,
		MaxGraphStates:    18,
		MergedNodeCap:     2,
		MinPerOption:      5,
		MaxPerOption:      6,
		DedupeSimilarity:  0.8,
		IrreversibleAxisW: 18,

		// Scoring
		AxisBase:              10,
		SignalAxisFloor:       55,
		ConfidenceConstraints: 2,
		EvidenceLimit:         4,

		// Grounding
		OverlapThreshold:   0.18,
		RelevanceThreshold: 0.6,
		RewriteBatchSize:   15,
		MinDetailLength:    120,
		MinTitleLength:     3,
		WeakTitleLength:    12,
		ShortTitleLength:   20,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	return DefaultDomainConfig()
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	// Smaller batches make prompt debugging easier
	cfg.RewriteBatchSize = 5
	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// PerOptionCap is max(min, min(max, floor((states-merged)/optionCount)))
func (c *DomainConfig) PerOptionCap(optionCount int) int {
	if optionCount < 1 {
		optionCount = 1
	}
	budget := (c.MaxGraphStates - c.MergedNodeCap) / optionCount
	if budget > c.MaxPerOption {
		budget = c.MaxPerOption
	}
	if budget < c.MinPerOption {
		budget = c.MinPerOption
	}
	return budget
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MinOptions < 1 || c.MaxOptions < c.MinOptions {
		return fmt.Errorf("invalid option bounds %d..%d", c.MinOptions, c.MaxOptions)
	}
	if c.WindowBase < 1 || c.WindowSpread < 1 {
		return fmt.Errorf("invalid template window %d+%d", c.WindowBase, c.WindowSpread)
	}
	if c.MinPerOption > c.MaxPerOption {
		return fmt.Errorf("per-option bounds inverted: %d > %d", c.MinPerOption, c.MaxPerOption)
	}
	if c.OverlapThreshold < 0 || c.OverlapThreshold > 1 {
		return fmt.Errorf("overlap threshold out of range: %v", c.OverlapThreshold)
	}
	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("relevance threshold out of range: %v", c.RelevanceThreshold)
	}
	if c.RewriteBatchSize < 1 {
		return fmt.Errorf("rewrite batch size must be positive")
	}
	return nil
}
