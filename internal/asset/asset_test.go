package asset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/openrip/openrip/internal/bundle"
	"github.com/openrip/openrip/internal/object"
)

// Object sub-layout builders, little-endian like the decoders expect.

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putF32(buf *bytes.Buffer, v float32) {
	putU32(buf, math.Float32bits(v))
}

func putAlignedString(buf *bytes.Buffer, s string) {
	putU32(buf, uint32(len(s)))
	buf.WriteString(s)
	if pad := (4 - len(s)%4) % 4; pad > 0 {
		buf.Write(make([]byte, pad))
	}
}

func recordFor(flags uint32, data []byte) object.Record {
	return object.NewRecord(bundle.DirectoryEntry{
		Size:  uint64(len(data)),
		Flags: flags,
		Name:  "entry",
	}, data)
}

func encodeTexture(name string, width, height uint32, format TextureFormat, pixels []byte) []byte {
	var buf bytes.Buffer
	putAlignedString(&buf, name)
	putU32(&buf, width)
	putU32(&buf, height)
	putU32(&buf, uint32(format))
	putU32(&buf, 1) // mips
	buf.Write([]byte{1, 0, 0, 0})
	putU32(&buf, uint32(len(pixels)))
	buf.Write(pixels)
	return buf.Bytes()
}

func TestTextureDecoder(t *testing.T) {
	pixels := []byte{255, 0, 0, 255, 0, 255, 0, 255}
	rec := recordFor(4, encodeTexture("hero_diffuse", 2, 1, TexRGBA32, pixels))

	d, err := (TextureDecoder{}).Decode(&rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tex := d.(*Texture)
	if tex.Name != "hero_diffuse" || tex.Width != 2 || tex.Height != 1 {
		t.Errorf("texture = %+v", tex)
	}
	if tex.Format != TexRGBA32 || !tex.Readable {
		t.Errorf("format = %v, readable = %v", tex.Format, tex.Readable)
	}
	if !bytes.Equal(tex.Pixels, pixels) {
		t.Errorf("pixels = %v", tex.Pixels)
	}
	if tex.AssetKind() != object.KindTexture {
		t.Errorf("kind = %v", tex.AssetKind())
	}
}

func TestTextureDecoderZeroDimension(t *testing.T) {
	rec := recordFor(4, encodeTexture("bad", 0, 4, TexRGBA32, nil))
	if _, err := (TextureDecoder{}).Decode(&rec); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestTextureDecoderTruncated(t *testing.T) {
	full := encodeTexture("t", 2, 2, TexRGBA32, make([]byte, 16))
	for cut := 0; cut < len(full); cut += 5 {
		rec := recordFor(4, full[:cut])
		if _, err := (TextureDecoder{}).Decode(&rec); err == nil {
			t.Errorf("cut at %d decoded successfully", cut)
		}
	}
}

func TestTextureDecoderOverlongStringLength(t *testing.T) {
	var buf bytes.Buffer
	putU32(&buf, 1<<30)
	buf.WriteString("short")
	rec := recordFor(4, buf.Bytes())
	if _, err := (TextureDecoder{}).Decode(&rec); err == nil {
		t.Fatal("expected error for string length beyond object data")
	}
}

func encodeMesh(name string, positions [][3]float32, normals [][3]float32, texcoords [][2]float32, indices []uint32) []byte {
	var buf bytes.Buffer
	putAlignedString(&buf, name)
	putU32(&buf, uint32(len(positions)))
	putU32(&buf, uint32(len(indices)))

	var attrs uint32
	if normals != nil {
		attrs |= meshAttrNormals
	}
	if texcoords != nil {
		attrs |= meshAttrTexcoords
	}
	putU32(&buf, attrs)

	for _, p := range positions {
		putF32(&buf, p[0])
		putF32(&buf, p[1])
		putF32(&buf, p[2])
	}
	for _, n := range normals {
		putF32(&buf, n[0])
		putF32(&buf, n[1])
		putF32(&buf, n[2])
	}
	for _, uv := range texcoords {
		putF32(&buf, uv[0])
		putF32(&buf, uv[1])
	}
	for _, i := range indices {
		putU32(&buf, i)
	}
	return buf.Bytes()
}

func cubePositions() [][3]float32 {
	var out [][3]float32
	for _, z := range []float32{-0.5, 0.5} {
		for _, y := range []float32{-0.5, 0.5} {
			for _, x := range []float32{-0.5, 0.5} {
				out = append(out, [3]float32{x, y, z})
			}
		}
	}
	return out
}

func cubeIndices() []uint32 {
	return []uint32{
		0, 1, 2, 1, 3, 2,
		4, 6, 5, 5, 6, 7,
		0, 4, 1, 1, 4, 5,
		2, 3, 6, 3, 7, 6,
		0, 2, 4, 2, 6, 4,
		1, 5, 3, 3, 5, 7,
	}
}

func TestMeshDecoderCube(t *testing.T) {
	rec := recordFor(2, encodeMesh("cube", cubePositions(), nil, nil, cubeIndices()))

	d, err := (MeshDecoder{}).Decode(&rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m := d.(*Mesh)
	if m.Name != "cube" || len(m.Positions) != 8 || len(m.Indices) != 36 {
		t.Fatalf("mesh = %q, %d positions, %d indices", m.Name, len(m.Positions), len(m.Indices))
	}
	if m.Triangles() != 12 {
		t.Errorf("triangles = %d, want 12", m.Triangles())
	}
	lo, hi := m.Bounds()
	if lo != [3]float32{-0.5, -0.5, -0.5} || hi != [3]float32{0.5, 0.5, 0.5} {
		t.Errorf("bounds = %v, %v", lo, hi)
	}
	if len(m.Normals) != 0 || len(m.Texcoords) != 0 {
		t.Errorf("unexpected optional streams: %d normals, %d texcoords", len(m.Normals), len(m.Texcoords))
	}
}

func TestMeshDecoderOptionalStreams(t *testing.T) {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	normals := [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	texcoords := [][2]float32{{0, 0}, {1, 0}, {0, 1}}
	rec := recordFor(2, encodeMesh("tri", positions, normals, texcoords, []uint32{0, 1, 2}))

	d, err := (MeshDecoder{}).Decode(&rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m := d.(*Mesh)
	if len(m.Normals) != 3 || m.Normals[0] != [3]float32{0, 0, 1} {
		t.Errorf("normals = %v", m.Normals)
	}
	if len(m.Texcoords) != 3 || m.Texcoords[2] != [2]float32{0, 1} {
		t.Errorf("texcoords = %v", m.Texcoords)
	}
}

func TestMeshDecoderRejectsBadIndices(t *testing.T) {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	// Index referencing a vertex past the stream.
	rec := recordFor(2, encodeMesh("bad", positions, nil, nil, []uint32{0, 1, 9}))
	if _, err := (MeshDecoder{}).Decode(&rec); err == nil {
		t.Error("expected error for out-of-range index")
	}

	// Index count not a triangle multiple.
	rec = recordFor(2, encodeMesh("bad", positions, nil, nil, []uint32{0, 1}))
	if _, err := (MeshDecoder{}).Decode(&rec); err == nil {
		t.Error("expected error for non-triangle index count")
	}
}

func TestMeshDecoderRejectsHugeVertexCount(t *testing.T) {
	var buf bytes.Buffer
	putAlignedString(&buf, "huge")
	putU32(&buf, 1<<28) // vertex count
	putU32(&buf, 0)
	putU32(&buf, 0)

	rec := recordFor(2, buf.Bytes())
	if _, err := (MeshDecoder{}).Decode(&rec); err == nil {
		t.Fatal("expected error before allocating for an impossible count")
	}
}

func encodeMaterial(name, shader string, props []Property) []byte {
	var buf bytes.Buffer
	putAlignedString(&buf, name)
	putAlignedString(&buf, shader)
	putU32(&buf, uint32(len(props)))
	for _, p := range props {
		putAlignedString(&buf, p.Name)
		buf.Write([]byte{byte(p.Kind), 0, 0, 0})
		for _, v := range p.Values {
			putF32(&buf, v)
		}
	}
	return buf.Bytes()
}

func TestMaterialDecoder(t *testing.T) {
	props := []Property{
		{Name: "_Metallic", Kind: PropFloat, Values: [4]float32{0.25}},
		{Name: "_Color", Kind: PropColor, Values: [4]float32{1, 0.5, 0, 1}},
	}
	rec := recordFor(8, encodeMaterial("steel", "Standard", props))

	d, err := (MaterialDecoder{}).Decode(&rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m := d.(*Material)
	if m.Name != "steel" || m.Shader != "Standard" || len(m.Properties) != 2 {
		t.Fatalf("material = %+v", m)
	}
	if m.Properties[0].Kind != PropFloat || m.Properties[0].Values[0] != 0.25 {
		t.Errorf("property 0 = %+v", m.Properties[0])
	}
	if m.Properties[1].Values != [4]float32{1, 0.5, 0, 1} {
		t.Errorf("property 1 = %+v", m.Properties[1])
	}
}

func TestMaterialDecoderRejectsHugePropertyCount(t *testing.T) {
	var buf bytes.Buffer
	putAlignedString(&buf, "m")
	putAlignedString(&buf, "s")
	putU32(&buf, 1<<27)

	rec := recordFor(8, buf.Bytes())
	if _, err := (MaterialDecoder{}).Decode(&rec); err == nil {
		t.Fatal("expected error before allocating for an impossible count")
	}
}

func encodeAudio(name string, channels, freq, bits uint32, seconds float32, codec AudioCodec, data []byte) []byte {
	var buf bytes.Buffer
	putAlignedString(&buf, name)
	putU32(&buf, channels)
	putU32(&buf, freq)
	putU32(&buf, bits)
	putF32(&buf, seconds)
	putU32(&buf, uint32(codec))
	putU32(&buf, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func TestAudioDecoder(t *testing.T) {
	payload := []byte("OggS\x00vorbis-frames")
	rec := recordFor(16, encodeAudio("music", 2, 44100, 16, 3.5, AudioVorbis, payload))

	d, err := (AudioDecoder{}).Decode(&rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	a := d.(*Audio)
	if a.Channels != 2 || a.Frequency != 44100 || a.BitsPerSample != 16 {
		t.Errorf("stream = %+v", a)
	}
	if a.Seconds != 3.5 || a.Codec != AudioVorbis {
		t.Errorf("seconds = %g, codec = %v", a.Seconds, a.Codec)
	}
	if !bytes.Equal(a.Data, payload) {
		t.Error("payload mangled")
	}
}

func TestAudioDecoderRejectsZeroRate(t *testing.T) {
	rec := recordFor(16, encodeAudio("bad", 2, 0, 16, 1, AudioPCM, nil))
	if _, err := (AudioDecoder{}).Decode(&rec); err == nil {
		t.Fatal("expected error for zero frequency")
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()

	rec := recordFor(4, encodeTexture("tex", 1, 1, TexRGBA32, []byte{0, 0, 0, 255}))
	d, err := r.Decode(&rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := d.(*Texture); !ok {
		t.Errorf("decoded type = %T", d)
	}
}

func TestRegistryUnknownKindPassesThrough(t *testing.T) {
	r := NewRegistry()
	data := []byte{1, 2, 3, 4}
	rec := recordFor(0, data)

	d, err := r.Decode(&rec)
	if !errors.Is(err, bundle.ErrUnsupportedAssetKind) {
		t.Fatalf("err = %v, want ErrUnsupportedAssetKind", err)
	}
	raw, ok := d.(*Raw)
	if !ok {
		t.Fatalf("decoded type = %T, want Raw passthrough", d)
	}
	if !bytes.Equal(raw.Data, data) {
		t.Error("raw passthrough lost the payload")
	}
}

func TestRegistryDescriptors(t *testing.T) {
	descs := NewRegistry().Descriptors()
	if len(descs) != 4 {
		t.Fatalf("descriptors = %d, want 4", len(descs))
	}
	kinds := make(map[object.Kind]bool)
	for _, d := range descs {
		kinds[d.Kind] = true
		if d.Name == "" || d.Version == "" || len(d.Outputs) == 0 {
			t.Errorf("incomplete descriptor: %+v", d)
		}
	}
	for _, k := range []object.Kind{object.KindTexture, object.KindMesh, object.KindMaterial, object.KindAudio} {
		if !kinds[k] {
			t.Errorf("no descriptor for %v", k)
		}
	}
}

func TestAlignedStringPadding(t *testing.T) {
	for _, s := range []string{"", "a", "ab", "abc", "abcd", strings.Repeat("x", 9)} {
		var buf bytes.Buffer
		putAlignedString(&buf, s)
		putU32(&buf, 0xDEADBEEF)

		c := &cursor{data: buf.Bytes()}
		got, err := c.alignedString()
		if err != nil {
			t.Fatalf("%q: %v", s, err)
		}
		if got != s {
			t.Errorf("round-trip %q -> %q", s, got)
		}
		sentinel, err := c.u32()
		if err != nil || sentinel != 0xDEADBEEF {
			t.Errorf("%q: cursor misaligned after string (sentinel %x, err %v)", s, sentinel, err)
		}
	}
}
