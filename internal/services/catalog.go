package services

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Offering is one consultancy service listed on the site.
type Offering struct {
	Slug       string   `yaml:"slug" json:"slug"`
	Name       string   `yaml:"name" json:"name"`
	Summary    string   `yaml:"summary" json:"summary"`
	Highlights []string `yaml:"highlights" json:"highlights"`
}

// Catalog serves the static list of offerings.
type Catalog struct {
	offerings []Offering
}

// NewCatalog parses the embedded catalog.
func NewCatalog() (*Catalog, error) {
	var offerings []Offering
	if err := yaml.Unmarshal(catalogYAML, &offerings); err != nil {
		return nil, fmt.Errorf("failed to parse service catalog: %w", err)
	}
	return &Catalog{offerings: offerings}, nil
}

// List returns a copy of every offering.
func (c *Catalog) List() []Offering {
	out := make([]Offering, len(c.offerings))
	copy(out, c.offerings)
	return out
}
