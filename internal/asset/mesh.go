package asset

import (
	"fmt"

	"github.com/openrip/openrip/internal/object"
)

// Attribute presence bits in the mesh sub-layout.
const (
	meshAttrNormals   = 1 << 0
	meshAttrTexcoords = 1 << 1
)

// Mesh is a decoded mesh object: interleaved-free attribute streams plus
// a triangle index list. Triangle winding follows the source index order.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	Texcoords [][2]float32
	Indices   []uint32
}

func (m *Mesh) AssetName() string      { return m.Name }
func (m *Mesh) AssetKind() object.Kind { return object.KindMesh }

// Triangles returns the triangle count.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// Bounds returns the axis-aligned min/max of the position stream.
func (m *Mesh) Bounds() (min, max [3]float32) {
	if len(m.Positions) == 0 {
		return
	}
	min, max = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return
}

// MeshDecoder parses the mesh sub-layout: aligned name, vertex count,
// index count, attribute mask, then positions, optional normals and
// texcoords, and the index list.
type MeshDecoder struct{}

func (MeshDecoder) Kind() object.Kind { return object.KindMesh }

func (MeshDecoder) Decode(rec *object.Record) (Decoded, error) {
	c := &cursor{data: rec.Data()}

	name, err := c.alignedString()
	if err != nil {
		return nil, fmt.Errorf("mesh %q: name: %w", rec.Entry.Name, err)
	}

	vertexCount, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("mesh %q: vertex count: %w", name, err)
	}
	indexCount, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("mesh %q: index count: %w", name, err)
	}
	attrs, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("mesh %q: attribute mask: %w", name, err)
	}

	// Every vertex costs at least 12 bytes of position data; reject
	// counts the payload cannot possibly hold before allocating.
	if int64(vertexCount)*12 > int64(c.remaining()) {
		return nil, fmt.Errorf("mesh %q: vertex count %d exceeds object data", name, vertexCount)
	}
	if indexCount%3 != 0 {
		return nil, fmt.Errorf("mesh %q: index count %d is not a multiple of 3", name, indexCount)
	}

	m := &Mesh{Name: name}
	if m.Positions, err = readVec3s(c, int(vertexCount)); err != nil {
		return nil, fmt.Errorf("mesh %q: positions: %w", name, err)
	}
	if attrs&meshAttrNormals != 0 {
		if m.Normals, err = readVec3s(c, int(vertexCount)); err != nil {
			return nil, fmt.Errorf("mesh %q: normals: %w", name, err)
		}
	}
	if attrs&meshAttrTexcoords != 0 {
		if m.Texcoords, err = readVec2s(c, int(vertexCount)); err != nil {
			return nil, fmt.Errorf("mesh %q: texcoords: %w", name, err)
		}
	}

	if int64(indexCount)*4 > int64(c.remaining()) {
		return nil, fmt.Errorf("mesh %q: index count %d exceeds object data", name, indexCount)
	}
	m.Indices = make([]uint32, indexCount)
	for i := range m.Indices {
		if m.Indices[i], err = c.u32(); err != nil {
			return nil, fmt.Errorf("mesh %q: index %d: %w", name, i, err)
		}
		if uint64(m.Indices[i]) >= uint64(vertexCount) {
			return nil, fmt.Errorf("mesh %q: index %d references vertex %d of %d", name, i, m.Indices[i], vertexCount)
		}
	}

	return m, nil
}

func readVec3s(c *cursor, count int) ([][3]float32, error) {
	out := make([][3]float32, count)
	for i := range out {
		for j := 0; j < 3; j++ {
			v, err := c.f32()
			if err != nil {
				return nil, err
			}
			out[i][j] = v
		}
	}
	return out, nil
}

func readVec2s(c *cursor, count int) ([][2]float32, error) {
	out := make([][2]float32, count)
	for i := range out {
		for j := 0; j < 2; j++ {
			v, err := c.f32()
			if err != nil {
				return nil, err
			}
			out[i][j] = v
		}
	}
	return out, nil
}
