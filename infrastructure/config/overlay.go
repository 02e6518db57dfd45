package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Overlay is the YAML file layered over the environment. Absent keys keep
// the environment value.
type Overlay struct {
	Grounding struct {
		OverlapThreshold   *float64 `yaml:"overlapThreshold"`
		RelevanceThreshold *float64 `yaml:"relevanceThreshold"`
		RewriteBatchSize   *int     `yaml:"rewriteBatchSize"`
		MinDetailLength    *int     `yaml:"minDetailLength"`
	} `yaml:"grounding"`
	Cache struct {
		TTL        *int `yaml:"ttl"`
		MaxEntries *int `yaml:"maxEntries"`
	} `yaml:"cache"`
	LogLevel *string `yaml:"logLevel"`
}

// LoadOverlay reads and parses an overlay file
func LoadOverlay(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseOverlay(data)
}

// ParseOverlay parses overlay YAML, rejecting unknown keys
func ParseOverlay(data []byte) (*Overlay, error) {
	var o Overlay
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return &o, nil
}

// ApplyTo copies every set overlay value into c
func (o *Overlay) ApplyTo(c *Config) {
	g := o.Grounding
	if g.OverlapThreshold != nil {
		c.Grounding.OverlapThreshold = *g.OverlapThreshold
	}
	if g.RelevanceThreshold != nil {
		c.Grounding.RelevanceThreshold = *g.RelevanceThreshold
	}
	if g.RewriteBatchSize != nil {
		c.Grounding.RewriteBatchSize = *g.RewriteBatchSize
	}
	if g.MinDetailLength != nil {
		c.Grounding.MinDetailLength = *g.MinDetailLength
	}
	if o.Cache.TTL != nil {
		c.CacheTTL = *o.Cache.TTL
	}
	if o.Cache.MaxEntries != nil {
		c.CacheMaxEntries = *o.Cache.MaxEntries
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
}
