// Package catalog holds the per-domain future-state templates.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"unicode/utf16"

	"gopkg.in/yaml.v3"

	"decisionmap/domain/core/valueobjects"
)

//go:embed templates.yaml
var templatesYAML []byte

// Template is a reusable future-state description
type Template struct {
	Title    string              `yaml:"title" json:"title"`
	Subtitle string              `yaml:"subtitle" json:"subtitle"`
	Tags     valueobjects.TagSet `yaml:"tags" json:"tags"`
}

// Catalog maps each domain to its templates, sorted by title
type Catalog struct {
	byDomain map[valueobjects.DecisionDomain][]Template
}

var (
	defaultCatalog *Catalog
	defaultErr     error
	loadOnce       sync.Once
)

// Default returns the embedded catalog, parsed once
func Default() (*Catalog, error) {
	loadOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(templatesYAML)
	})
	return defaultCatalog, defaultErr
}

// MustDefault panics when the embedded catalog is broken
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML. Every supported domain must be present
// and every tag must belong to the known vocabulary.
func Parse(data []byte) (*Catalog, error) {
	raw := make(map[string][]Template)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	c := &Catalog{byDomain: make(map[valueobjects.DecisionDomain][]Template, len(raw))}
	for name, templates := range raw {
		d := valueobjects.DecisionDomain(name)
		if !d.IsValid() {
			return nil, fmt.Errorf("unknown domain %q in templates", name)
		}
		for _, t := range templates {
			if t.Title == "" {
				return nil, fmt.Errorf("domain %s: template without title", name)
			}
			for _, tag := range t.Tags {
				if !tag.IsKnown() {
					return nil, fmt.Errorf("domain %s: template %q has unknown tag %q", name, t.Title, tag)
				}
			}
		}
		sorted := append([]Template(nil), templates...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return lessUTF16(sorted[i].Title, sorted[j].Title)
		})
		c.byDomain[d] = sorted
	}

	for _, d := range valueobjects.Domains {
		if len(c.byDomain[d]) == 0 {
			return nil, fmt.Errorf("domain %s has no templates", d)
		}
	}
	return c, nil
}

// Templates returns the sorted templates of the domain; unknown domains
// resolve to the custom set.
func (c *Catalog) Templates(d valueobjects.DecisionDomain) []Template {
	t, ok := c.byDomain[d]
	if !ok {
		t = c.byDomain[valueobjects.DomainCustom]
	}
	out := make([]Template, len(t))
	for i, tpl := range t {
		tpl.Tags = append(valueobjects.TagSet(nil), tpl.Tags...)
		out[i] = tpl
	}
	return out
}

// Domains lists domains in canonical order
func (c *Catalog) Domains() []valueobjects.DecisionDomain {
	return append([]valueobjects.DecisionDomain(nil), valueobjects.Domains...)
}

// lessUTF16 orders strings by UTF-16 code units
func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}
