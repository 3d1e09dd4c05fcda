// Package export converts decoded assets into interchange formats:
// raster images for textures, glTF with a companion binary buffer for
// meshes, OGG/WAV containers for audio, and JSON documents for
// materials.
package export

import (
	"fmt"

	"github.com/openrip/openrip/internal/asset"
	"github.com/openrip/openrip/internal/bundle"
)

// Options select the conversion targets. The zero value picks the
// defaults (PNG raster, glTF without OBJ fallback, no flip).
type Options struct {
	// RasterFormat is "png" (default) or "bmp".
	RasterFormat string

	// FlipVertical flips decoded textures before encoding, for sources
	// that store pixel rows bottom-up.
	FlipVertical bool

	// OBJFallback emits a Wavefront OBJ artifact next to the glTF output.
	OBJFallback bool
}

// Artifact is one produced output file: a name with extension, a media
// type, and the encoded bytes. Mesh conversion produces two artifacts,
// the glTF document and its companion buffer.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// Convert encodes a decoded asset into its interchange representation.
// Raw passthrough assets become .bin artifacts. An asset/format pairing
// with no encoder returns ErrUnsupportedConversion.
func Convert(d asset.Decoded, opts Options) ([]Artifact, error) {
	switch a := d.(type) {
	case *asset.Texture:
		art, err := convertTexture(a, opts)
		if err != nil {
			return nil, err
		}
		return []Artifact{art}, nil

	case *asset.Mesh:
		return convertMesh(a, opts)

	case *asset.Material:
		art, err := convertMaterial(a)
		if err != nil {
			return nil, err
		}
		return []Artifact{art}, nil

	case *asset.Audio:
		art, err := convertAudio(a)
		if err != nil {
			return nil, err
		}
		return []Artifact{art}, nil

	case *asset.Raw:
		return []Artifact{{
			Name:      a.Name + ".bin",
			MediaType: "application/octet-stream",
			Data:      a.Data,
		}}, nil
	}

	return nil, fmt.Errorf("%w: no encoder for %T", bundle.ErrUnsupportedConversion, d)
}
