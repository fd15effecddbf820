package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"uigen/internal/domain"
)

//go:embed components.yaml
var builtinComponents []byte

// Catalog is an immutable, ordered set of component descriptors. It is built
// once at startup and is safe for concurrent reads.
type Catalog struct {
	components []domain.ComponentDescriptor
}

type catalogFile struct {
	Components []domain.ComponentDescriptor `yaml:"components"`
}

// New builds a Catalog from descriptors, preserving their order.
func New(components ...domain.ComponentDescriptor) (*Catalog, error) {
	if len(components) == 0 {
		return nil, errors.New("catalog: at least one component is required")
	}
	seen := make(map[string]struct{}, len(components))
	out := make([]domain.ComponentDescriptor, 0, len(components))
	for i, c := range components {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: component %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("catalog: duplicate component %q", name)
		}
		if strings.TrimSpace(c.ImportContract) == "" {
			return nil, fmt.Errorf("catalog: component %q has no import contract", name)
		}
		seen[name] = struct{}{}
		c.Name = name
		out = append(out, c)
	}
	return &Catalog{components: out}, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(f.Components...)
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Builtin returns the catalog shipped with the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtinComponents)
}

// Components returns a copy of the descriptors in catalog order.
func (c *Catalog) Components() []domain.ComponentDescriptor {
	out := make([]domain.ComponentDescriptor, len(c.components))
	copy(out, c.components)
	return out
}

// Len reports the number of descriptors.
func (c *Catalog) Len() int {
	return len(c.components)
}
