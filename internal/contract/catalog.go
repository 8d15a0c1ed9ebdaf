package contract

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnsSet is the reserved set name meaning "every numeric column of the data".
const ColumnsSet = "columns"

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// AbbreviationRule replaces a substring of a symptom name for display.
type AbbreviationRule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Catalog holds named symptom sets and display abbreviations.
type Catalog struct {
	Sets          map[string][]string `yaml:"sets"`
	Abbreviations []AbbreviationRule  `yaml:"abbreviations"`
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse symptom catalog: %w", err)
	}
	if c.Sets == nil {
		c.Sets = make(map[string][]string)
	}
	for name, set := range c.Sets {
		if name == ColumnsSet {
			return nil, fmt.Errorf("symptom set name %q is reserved", ColumnsSet)
		}
		if len(set) == 0 {
			return nil, fmt.Errorf("symptom set %q is empty", name)
		}
	}
	return &c, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog returns the built-in catalog, overlaid with the sets and rules in path.
// Sets in the file replace built-in sets of the same name.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symptom file %q: %w", path, err)
	}
	extra, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	maps.Copy(c.Sets, extra.Sets)
	if len(extra.Abbreviations) > 0 {
		c.Abbreviations = extra.Abbreviations
	}
	return c, nil
}

// Set returns a copy of the named symptom set.
func (c *Catalog) Set(name string) ([]string, bool) {
	s, ok := c.Sets[name]
	return slices.Clone(s), ok
}

// SetNames returns the set names in sorted order.
func (c *Catalog) SetNames() []string {
	return slices.Sorted(maps.Keys(c.Sets))
}

// Abbreviate shortens a symptom name for display, e.g. "madrs_3" to "M3".
func (c *Catalog) Abbreviate(name string) string {
	for _, r := range c.Abbreviations {
		name = strings.ReplaceAll(name, r.From, r.To)
	}
	return name
}
