package export

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/openrip/openrip/internal/asset"
)

type materialDocument struct {
	Name       string             `json:"name"`
	Shader     string             `json:"shader"`
	Properties []materialProperty `json:"properties"`
}

type materialProperty struct {
	Name   string    `json:"name"`
	Kind   string    `json:"kind"`
	Values []float32 `json:"values"`
}

func convertMaterial(m *asset.Material) (Artifact, error) {
	doc := materialDocument{
		Name:       m.Name,
		Shader:     m.Shader,
		Properties: make([]materialProperty, 0, len(m.Properties)),
	}
	for _, p := range m.Properties {
		doc.Properties = append(doc.Properties, materialProperty{
			Name:   p.Name,
			Kind:   p.Kind.String(),
			Values: propertyValues(p),
		})
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("material %q: encode: %w", m.Name, err)
	}
	return Artifact{Name: m.Name + ".material.json", MediaType: "application/json", Data: body}, nil
}

// propertyValues trims the fixed value slots to the width the kind uses.
func propertyValues(p asset.Property) []float32 {
	switch p.Kind {
	case asset.PropFloat:
		return p.Values[:1]
	default:
		return p.Values[:]
	}
}
