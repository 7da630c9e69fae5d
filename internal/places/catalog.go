package places

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type Tag struct {
	Key   string
	Value string
}

type TypeSpec struct {
	Tags         []string `yaml:"tags"`
	Subway       bool     `yaml:"subway"`
	Requirement  string   `yaml:"requirement"`
	ScoreRadiusM int      `yaml:"score_radius_m"`

	parsed []Tag
}

func (s TypeSpec) ParsedTags() []Tag { return s.parsed }

type Catalog struct {
	Default  string              `yaml:"default"`
	Overview []string            `yaml:"overview"`
	Mirrors  map[string]string   `yaml:"mirrors"`
	Types    map[string]TypeSpec `yaml:"types"`
}

// ScoredType is one place type that contributes to an area score.
type ScoredType struct {
	Type        string
	Requirement string
	RadiusM     int
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Types) == 0 {
		return nil, errors.New("catalog has no types")
	}
	for name, spec := range c.Types {
		if !spec.Subway && len(spec.Tags) == 0 {
			return nil, fmt.Errorf("type %q has no tags", name)
		}
		spec.parsed = spec.parsed[:0]
		for _, raw := range spec.Tags {
			k, v, ok := strings.Cut(raw, "=")
			if !ok || strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("type %q: tag %q must be key=value", name, raw)
			}
			spec.parsed = append(spec.parsed, Tag{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
		}
		if spec.Requirement != "" && spec.ScoreRadiusM <= 0 {
			return nil, fmt.Errorf("type %q: scored types need score_radius_m", name)
		}
		c.Types[name] = spec
	}
	if _, ok := c.Types[c.Default]; !ok {
		return nil, fmt.Errorf("default type %q not in catalog", c.Default)
	}
	for _, t := range c.Overview {
		if _, ok := c.Types[t]; !ok {
			return nil, fmt.Errorf("overview type %q not in catalog", t)
		}
	}
	for alias, target := range c.Mirrors {
		if _, ok := c.Types[target]; !ok {
			return nil, fmt.Errorf("mirror %q points at unknown type %q", alias, target)
		}
	}
	return &c, nil
}

// DefaultCatalog is the embedded catalog. It is validated by tests, so a
// parse failure here is a build defect.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Spec returns the spec for placeType, falling back to the default type.
func (c *Catalog) Spec(placeType string) (string, TypeSpec) {
	if s, ok := c.Types[placeType]; ok {
		return placeType, s
	}
	return c.Default, c.Types[c.Default]
}

// Scored lists the overview types that carry a requirement, in overview order.
func (c *Catalog) Scored() []ScoredType {
	var out []ScoredType
	for _, t := range c.Overview {
		s := c.Types[t]
		if s.Requirement == "" {
			continue
		}
		out = append(out, ScoredType{Type: t, Requirement: s.Requirement, RadiusM: s.ScoreRadiusM})
	}
	return out
}
