// Package asset decodes typed objects out of their engine-specific
// binary sub-layouts. Decoders are registered per asset kind behind one
// capability interface; unknown kinds fall through to a raw passthrough.
package asset

import (
	"fmt"

	"github.com/openrip/openrip/internal/bundle"
	"github.com/openrip/openrip/internal/object"
)

// Decoded is any successfully decoded asset. Concrete types are Texture,
// Mesh, Material, Audio and Raw.
type Decoded interface {
	AssetName() string
	AssetKind() object.Kind
}

// Decoder turns an object record's bytes into a Decoded asset. Decoders
// are looked up by kind only and never depend on another decoder's
// output.
type Decoder interface {
	Kind() object.Kind
	Decode(rec *object.Record) (Decoded, error)
}

// Descriptor describes one registered decoder for callers that list the
// plugin surface.
type Descriptor struct {
	Name    string
	Kind    object.Kind
	Outputs []string
	Version string
}

// Registry maps asset kinds to decoders.
type Registry struct {
	decoders    map[object.Kind]Decoder
	descriptors []Descriptor
}

// NewRegistry returns a registry with every built-in decoder registered.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[object.Kind]Decoder)}
	r.Register(&TextureDecoder{}, Descriptor{
		Name: "texture", Kind: object.KindTexture,
		Outputs: []string{"png", "bmp"}, Version: "1",
	})
	r.Register(&MeshDecoder{}, Descriptor{
		Name: "mesh", Kind: object.KindMesh,
		Outputs: []string{"gltf", "obj"}, Version: "1",
	})
	r.Register(&MaterialDecoder{}, Descriptor{
		Name: "material", Kind: object.KindMaterial,
		Outputs: []string{"json"}, Version: "1",
	})
	r.Register(&AudioDecoder{}, Descriptor{
		Name: "audio", Kind: object.KindAudio,
		Outputs: []string{"ogg", "wav"}, Version: "1",
	})
	return r
}

// Register adds a decoder for its kind, replacing any previous one.
func (r *Registry) Register(d Decoder, desc Descriptor) {
	r.decoders[d.Kind()] = d
	r.descriptors = append(r.descriptors, desc)
}

// Descriptors lists the registered decoders.
func (r *Registry) Descriptors() []Descriptor {
	return r.descriptors
}

// Decode dispatches a record to the decoder for its kind. A kind with no
// registered decoder yields a Raw passthrough asset together with an
// ErrUnsupportedAssetKind so the caller can record the downgrade without
// aborting the run.
func (r *Registry) Decode(rec *object.Record) (Decoded, error) {
	d, ok := r.decoders[rec.Kind]
	if !ok {
		return &Raw{Name: rec.Entry.Name, Kind: rec.Kind, Data: rec.Data()},
			fmt.Errorf("%w: %q has kind %s", bundle.ErrUnsupportedAssetKind, rec.Entry.Name, rec.Kind)
	}
	return d.Decode(rec)
}

// Raw is the passthrough asset for kinds without a decoder. Its bytes
// are the record's view into the shared buffer, not a copy.
type Raw struct {
	Name string
	Kind object.Kind
	Data []byte
}

func (r *Raw) AssetName() string      { return r.Name }
func (r *Raw) AssetKind() object.Kind { return r.Kind }
