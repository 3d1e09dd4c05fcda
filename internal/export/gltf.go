package export

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"github.com/openrip/openrip/internal/asset"
)

const (
	gltfComponentFloat  = 5126
	gltfComponentUshort = 5123
	gltfComponentUint   = 5125

	gltfTargetArrayBuffer        = 34962
	gltfTargetElementArrayBuffer = 34963

	gltfModeTriangles = 4
)

type gltfDocument struct {
	Asset       gltfAsset      `json:"asset"`
	Scene       int            `json:"scene"`
	Scenes      []gltfScene    `json:"scenes"`
	Nodes       []gltfNode     `json:"nodes"`
	Meshes      []gltfMesh     `json:"meshes"`
	Accessors   []gltfAccessor `json:"accessors"`
	BufferViews []gltfView     `json:"bufferViews"`
	Buffers     []gltfBuffer   `json:"buffers"`
}

type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

type gltfScene struct {
	Nodes []int `json:"nodes"`
}

type gltfNode struct {
	Name string `json:"name,omitempty"`
	Mesh int    `json:"mesh"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    int            `json:"indices"`
	Mode       int            `json:"mode"`
}

type gltfAccessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float32 `json:"min,omitempty"`
	Max           []float32 `json:"max,omitempty"`
}

type gltfView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target,omitempty"`
}

type gltfBuffer struct {
	URI        string `json:"uri"`
	ByteLength int    `json:"byteLength"`
}

func convertMesh(m *asset.Mesh, opts Options) ([]Artifact, error) {
	arts, err := encodeGLTF(m)
	if err != nil {
		return nil, err
	}
	if opts.OBJFallback {
		obj, err := encodeOBJ(m)
		if err != nil {
			return nil, err
		}
		arts = append(arts, obj)
	}
	return arts, nil
}

// encodeGLTF emits a two-file pair: a JSON document and a companion
// binary buffer holding the little-endian vertex and index streams.
func encodeGLTF(m *asset.Mesh) ([]Artifact, error) {
	binName := m.Name + ".bin"

	var bin []byte
	doc := gltfDocument{
		Asset:  gltfAsset{Version: "2.0", Generator: "openrip"},
		Scene:  0,
		Scenes: []gltfScene{{Nodes: []int{0}}},
		Nodes:  []gltfNode{{Name: m.Name, Mesh: 0}},
	}

	appendView := func(data []byte, target int) int {
		doc.BufferViews = append(doc.BufferViews, gltfView{
			Buffer:     0,
			ByteOffset: len(bin),
			ByteLength: len(data),
			Target:     target,
		})
		bin = append(bin, data...)
		return len(doc.BufferViews) - 1
	}

	attrs := map[string]int{}

	lo, hi := m.Bounds()
	posView := appendView(packVec3(m.Positions), gltfTargetArrayBuffer)
	doc.Accessors = append(doc.Accessors, gltfAccessor{
		BufferView:    posView,
		ComponentType: gltfComponentFloat,
		Count:         len(m.Positions),
		Type:          "VEC3",
		Min:           lo[:],
		Max:           hi[:],
	})
	attrs["POSITION"] = len(doc.Accessors) - 1

	if len(m.Normals) > 0 {
		view := appendView(packVec3(m.Normals), gltfTargetArrayBuffer)
		doc.Accessors = append(doc.Accessors, gltfAccessor{
			BufferView:    view,
			ComponentType: gltfComponentFloat,
			Count:         len(m.Normals),
			Type:          "VEC3",
		})
		attrs["NORMAL"] = len(doc.Accessors) - 1
	}

	if len(m.Texcoords) > 0 {
		view := appendView(packVec2(m.Texcoords), gltfTargetArrayBuffer)
		doc.Accessors = append(doc.Accessors, gltfAccessor{
			BufferView:    view,
			ComponentType: gltfComponentFloat,
			Count:         len(m.Texcoords),
			Type:          "VEC2",
		})
		attrs["TEXCOORD_0"] = len(doc.Accessors) - 1
	}

	indexData, indexComponent := packIndices(m.Indices)
	idxView := appendView(indexData, gltfTargetElementArrayBuffer)
	doc.Accessors = append(doc.Accessors, gltfAccessor{
		BufferView:    idxView,
		ComponentType: indexComponent,
		Count:         len(m.Indices),
		Type:          "SCALAR",
	})

	doc.Meshes = []gltfMesh{{
		Name: m.Name,
		Primitives: []gltfPrimitive{{
			Attributes: attrs,
			Indices:    len(doc.Accessors) - 1,
			Mode:       gltfModeTriangles,
		}},
	}}
	doc.Buffers = []gltfBuffer{{URI: binName, ByteLength: len(bin)}}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("mesh %q: gltf encode: %w", m.Name, err)
	}

	return []Artifact{
		{Name: m.Name + ".gltf", MediaType: "model/gltf+json", Data: body},
		{Name: binName, MediaType: "application/octet-stream", Data: bin},
	}, nil
}

func packVec3(vs [][3]float32) []byte {
	out := make([]byte, 0, len(vs)*12)
	for _, v := range vs {
		for _, f := range v {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

func packVec2(vs [][2]float32) []byte {
	out := make([]byte, 0, len(vs)*8)
	for _, v := range vs {
		for _, f := range v {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

// packIndices stores indices as u16 when every value fits, otherwise u32.
func packIndices(indices []uint32) ([]byte, int) {
	wide := false
	for _, i := range indices {
		if i > math.MaxUint16 {
			wide = true
			break
		}
	}
	if wide {
		out := make([]byte, 0, len(indices)*4)
		for _, i := range indices {
			out = binary.LittleEndian.AppendUint32(out, i)
		}
		return out, gltfComponentUint
	}
	out := make([]byte, 0, len(indices)*2)
	for _, i := range indices {
		out = binary.LittleEndian.AppendUint16(out, uint16(i))
	}
	return out, gltfComponentUshort
}
