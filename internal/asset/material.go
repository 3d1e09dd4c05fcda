package asset

import (
	"fmt"

	"github.com/openrip/openrip/internal/object"
)

// PropertyKind discriminates material property value interpretation.
type PropertyKind uint8

const (
	PropFloat  PropertyKind = 0
	PropColor  PropertyKind = 1
	PropVector PropertyKind = 2
)

func (k PropertyKind) String() string {
	switch k {
	case PropFloat:
		return "float"
	case PropColor:
		return "color"
	case PropVector:
		return "vector"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Property is one shader parameter. Values always carry four components;
// float properties use only the first.
type Property struct {
	Name   string
	Kind   PropertyKind
	Values [4]float32
}

// Material is a decoded material object: shader reference plus its
// parameter table.
type Material struct {
	Name       string
	Shader     string
	Properties []Property
}

func (m *Material) AssetName() string      { return m.Name }
func (m *Material) AssetKind() object.Kind { return object.KindMaterial }

// MaterialDecoder parses the material sub-layout: aligned name, aligned
// shader name, property count, then per property an aligned name, a kind
// byte with padding, and four floats.
type MaterialDecoder struct{}

func (MaterialDecoder) Kind() object.Kind { return object.KindMaterial }

func (MaterialDecoder) Decode(rec *object.Record) (Decoded, error) {
	c := &cursor{data: rec.Data()}

	name, err := c.alignedString()
	if err != nil {
		return nil, fmt.Errorf("material %q: name: %w", rec.Entry.Name, err)
	}
	shader, err := c.alignedString()
	if err != nil {
		return nil, fmt.Errorf("material %q: shader: %w", name, err)
	}

	count, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("material %q: property count: %w", name, err)
	}
	// Each property needs at least 24 bytes (name prefix + kind + values).
	if int64(count)*24 > int64(c.remaining()) {
		return nil, fmt.Errorf("material %q: property count %d exceeds object data", name, count)
	}

	m := &Material{Name: name, Shader: shader, Properties: make([]Property, count)}
	for i := range m.Properties {
		p := &m.Properties[i]
		if p.Name, err = c.alignedString(); err != nil {
			return nil, fmt.Errorf("material %q: property %d name: %w", name, i, err)
		}
		kind, err := c.u8()
		if err != nil {
			return nil, fmt.Errorf("material %q: property %q kind: %w", name, p.Name, err)
		}
		p.Kind = PropertyKind(kind)
		if err := c.skip(3); err != nil {
			return nil, fmt.Errorf("material %q: property %q padding: %w", name, p.Name, err)
		}
		for j := 0; j < 4; j++ {
			if p.Values[j], err = c.f32(); err != nil {
				return nil, fmt.Errorf("material %q: property %q value %d: %w", name, p.Name, j, err)
			}
		}
	}

	return m, nil
}
