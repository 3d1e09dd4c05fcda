package export

import (
	"bytes"
	"fmt"

	"github.com/openrip/openrip/internal/asset"
)

// encodeOBJ writes a single Wavefront OBJ file. OBJ indices are
// one-based and a face may reference normals and texcoords only when
// the mesh carries them.
func encodeOBJ(m *asset.Mesh) (Artifact, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "o %s\n", m.Name)

	for _, p := range m.Positions {
		fmt.Fprintf(&buf, "v %g %g %g\n", p[0], p[1], p[2])
	}
	for _, t := range m.Texcoords {
		fmt.Fprintf(&buf, "vt %g %g\n", t[0], t[1])
	}
	for _, n := range m.Normals {
		fmt.Fprintf(&buf, "vn %g %g %g\n", n[0], n[1], n[2])
	}

	hasT, hasN := len(m.Texcoords) > 0, len(m.Normals) > 0
	for t := 0; t < len(m.Indices); t += 3 {
		buf.WriteString("f")
		for _, idx := range m.Indices[t : t+3] {
			i := idx + 1
			switch {
			case hasT && hasN:
				fmt.Fprintf(&buf, " %d/%d/%d", i, i, i)
			case hasT:
				fmt.Fprintf(&buf, " %d/%d", i, i)
			case hasN:
				fmt.Fprintf(&buf, " %d//%d", i, i)
			default:
				fmt.Fprintf(&buf, " %d", i)
			}
		}
		buf.WriteByte('\n')
	}

	return Artifact{Name: m.Name + ".obj", MediaType: "model/obj", Data: buf.Bytes()}, nil
}
