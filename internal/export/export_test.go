package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/openrip/openrip/internal/asset"
	"github.com/openrip/openrip/internal/bundle"
)

// cubeMesh is a unit cube centered on the origin: 8 vertices, 12
// triangles.
func cubeMesh() *asset.Mesh {
	m := &asset.Mesh{Name: "cube"}
	for _, z := range []float32{-0.5, 0.5} {
		for _, y := range []float32{-0.5, 0.5} {
			for _, x := range []float32{-0.5, 0.5} {
				m.Positions = append(m.Positions, [3]float32{x, y, z})
			}
		}
	}
	m.Indices = []uint32{
		0, 1, 2, 1, 3, 2,
		4, 6, 5, 5, 6, 7,
		0, 4, 1, 1, 4, 5,
		2, 3, 6, 3, 7, 6,
		0, 2, 4, 2, 6, 4,
		1, 5, 3, 3, 5, 7,
	}
	return m
}

func TestConvertTexturePNG(t *testing.T) {
	tex := &asset.Texture{
		Name:   "swatch",
		Width:  2,
		Height: 2,
		Format: asset.TexRGBA32,
		Pixels: []byte{
			255, 0, 0, 255, 0, 255, 0, 255,
			0, 0, 255, 255, 255, 255, 255, 128,
		},
	}

	arts, err := Convert(tex, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(arts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(arts))
	}
	if arts[0].Name != "swatch.png" {
		t.Errorf("artifact name = %q, want swatch.png", arts[0].Name)
	}

	img, err := png.Decode(bytes.NewReader(arts[0].Data))
	if err != nil {
		t.Fatalf("decoding produced png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("decoded size = %dx%d, want 2x2", b.Dx(), b.Dy())
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 || a>>8 != 255 {
		t.Errorf("pixel (0,0) = %d,%d,%d,%d, want 255,0,0,255", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestConvertTextureChannelOrders(t *testing.T) {
	// One orange pixel expressed in each byte order.
	cases := []struct {
		format asset.TextureFormat
		pixels []byte
	}{
		{asset.TexRGBA32, []byte{255, 128, 0, 255}},
		{asset.TexARGB32, []byte{255, 255, 128, 0}},
		{asset.TexBGRA32, []byte{0, 128, 255, 255}},
		{asset.TexRGB24, []byte{255, 128, 0}},
	}

	for _, tc := range cases {
		tex := &asset.Texture{Name: "px", Width: 1, Height: 1, Format: tc.format, Pixels: tc.pixels}
		rgba, err := toRGBA(tex)
		if err != nil {
			t.Fatalf("%s: %v", tc.format, err)
		}
		want := []byte{255, 128, 0, 255}
		if !bytes.Equal(rgba, want) {
			t.Errorf("%s: got %v, want %v", tc.format, rgba, want)
		}
	}
}

func TestConvertTextureAlpha8(t *testing.T) {
	tex := &asset.Texture{Name: "a", Width: 1, Height: 1, Format: asset.TexAlpha8, Pixels: []byte{64}}
	rgba, err := toRGBA(tex)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{255, 255, 255, 64}; !bytes.Equal(rgba, want) {
		t.Errorf("got %v, want %v", rgba, want)
	}
}

func TestConvertTextureRGB565(t *testing.T) {
	// 0xF800 is pure red, 0x07E0 pure green.
	tex := &asset.Texture{
		Name: "c", Width: 2, Height: 1, Format: asset.TexRGB565,
		Pixels: []byte{0x00, 0xF8, 0xE0, 0x07},
	}
	rgba, err := toRGBA(tex)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{255, 0, 0, 255, 0, 255, 0, 255}
	if !bytes.Equal(rgba, want) {
		t.Errorf("got %v, want %v", rgba, want)
	}
}

func TestConvertTextureDXT1Solid(t *testing.T) {
	// A single block with c0 = pure red and all selectors zero decodes
	// to sixteen red pixels.
	block := []byte{0x00, 0xF8, 0x00, 0x00, 0, 0, 0, 0}
	tex := &asset.Texture{Name: "d", Width: 4, Height: 4, Format: asset.TexDXT1, Pixels: block}
	rgba, err := toRGBA(tex)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 16; i++ {
		p := rgba[i*4 : i*4+4]
		if p[0] != 255 || p[1] != 0 || p[2] != 0 || p[3] != 255 {
			t.Fatalf("pixel %d = %v, want red", i, p)
		}
	}
}

func TestConvertTextureDXT5Alpha(t *testing.T) {
	// Alpha block with a0=0x40 and all selectors zero, color block pure
	// red: sixteen red pixels at alpha 0x40.
	block := append([]byte{0x40, 0x00, 0, 0, 0, 0, 0, 0}, 0x00, 0xF8, 0x00, 0x00, 0, 0, 0, 0)
	tex := &asset.Texture{Name: "d5", Width: 4, Height: 4, Format: asset.TexDXT5, Pixels: block}
	rgba, err := toRGBA(tex)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 16; i++ {
		if rgba[i*4+3] != 0x40 {
			t.Fatalf("pixel %d alpha = %d, want 0x40", i, rgba[i*4+3])
		}
	}
}

func TestConvertTextureTruncatedPayload(t *testing.T) {
	tex := &asset.Texture{Name: "t", Width: 4, Height: 4, Format: asset.TexRGBA32, Pixels: []byte{1, 2, 3}}
	if _, err := Convert(tex, Options{}); err == nil {
		t.Fatal("expected error for short payload")
	}
}

func TestConvertTextureUnknownRasterFormat(t *testing.T) {
	tex := &asset.Texture{Name: "t", Width: 1, Height: 1, Format: asset.TexRGBA32, Pixels: []byte{0, 0, 0, 255}}
	_, err := Convert(tex, Options{RasterFormat: "tiff"})
	if !errors.Is(err, bundle.ErrUnsupportedConversion) {
		t.Fatalf("err = %v, want ErrUnsupportedConversion", err)
	}
}

func TestConvertMeshGLTF(t *testing.T) {
	arts, err := Convert(cubeMesh(), Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("got %d artifacts, want gltf + bin", len(arts))
	}
	if arts[0].Name != "cube.gltf" || arts[1].Name != "cube.bin" {
		t.Fatalf("artifact names = %q, %q", arts[0].Name, arts[1].Name)
	}

	var doc gltfDocument
	if err := json.Unmarshal(arts[0].Data, &doc); err != nil {
		t.Fatalf("unmarshal gltf: %v", err)
	}

	if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 1 {
		t.Fatalf("expected one mesh with one primitive")
	}
	prim := doc.Meshes[0].Primitives[0]

	pos := doc.Accessors[prim.Attributes["POSITION"]]
	if pos.Count != 8 {
		t.Errorf("position count = %d, want 8", pos.Count)
	}
	wantLo, wantHi := []float32{-0.5, -0.5, -0.5}, []float32{0.5, 0.5, 0.5}
	for i := 0; i < 3; i++ {
		if pos.Min[i] != wantLo[i] || pos.Max[i] != wantHi[i] {
			t.Errorf("bounds axis %d = [%g, %g], want [%g, %g]", i, pos.Min[i], pos.Max[i], wantLo[i], wantHi[i])
		}
	}

	idx := doc.Accessors[prim.Indices]
	if idx.Count != 36 {
		t.Errorf("index count = %d, want 36", idx.Count)
	}
	if idx.ComponentType != gltfComponentUshort {
		t.Errorf("index component = %d, want unsigned short", idx.ComponentType)
	}

	if doc.Buffers[0].URI != "cube.bin" || doc.Buffers[0].ByteLength != len(arts[1].Data) {
		t.Errorf("buffer = %+v, bin length %d", doc.Buffers[0], len(arts[1].Data))
	}

	// First position in the binary stream is vertex 0.
	x := math.Float32frombits(binary.LittleEndian.Uint32(arts[1].Data))
	if x != -0.5 {
		t.Errorf("first position x = %g, want -0.5", x)
	}
}

func TestConvertMeshIndexWidening(t *testing.T) {
	m := cubeMesh()
	m.Indices[0] = 70000
	m.Positions = append(m.Positions, make([][3]float32, 70001-len(m.Positions))...)

	arts, err := Convert(m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var doc gltfDocument
	if err := json.Unmarshal(arts[0].Data, &doc); err != nil {
		t.Fatal(err)
	}
	idx := doc.Accessors[doc.Meshes[0].Primitives[0].Indices]
	if idx.ComponentType != gltfComponentUint {
		t.Errorf("index component = %d, want unsigned int", idx.ComponentType)
	}
	view := doc.BufferViews[idx.BufferView]
	if view.ByteLength != 36*4 {
		t.Errorf("index view length = %d, want %d", view.ByteLength, 36*4)
	}
}

func TestConvertMeshOBJFallback(t *testing.T) {
	m := cubeMesh()
	arts, err := Convert(m, Options{OBJFallback: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(arts) != 3 {
		t.Fatalf("got %d artifacts, want gltf + bin + obj", len(arts))
	}
	obj := string(arts[2].Data)
	if !strings.HasPrefix(obj, "o cube\n") {
		t.Errorf("obj missing object line: %q", obj[:20])
	}
	if got := strings.Count(obj, "\nv "); got != 8 {
		t.Errorf("obj has %d vertices, want 8", got)
	}
	if got := strings.Count(obj, "\nf "); got != 12 {
		t.Errorf("obj has %d faces, want 12", got)
	}
	if !strings.Contains(obj, "f 1 2 3\n") {
		t.Error("obj face indices should be one-based")
	}
}

func TestConvertAudioPCM(t *testing.T) {
	a := &asset.Audio{
		Name: "beep", Channels: 1, Frequency: 8000, BitsPerSample: 16,
		Codec: asset.AudioPCM, Data: []byte{0, 0, 0x10, 0x20},
	}
	arts, err := Convert(a, Options{})
	if err != nil {
		t.Fatal(err)
	}
	wav := arts[0].Data
	if arts[0].Name != "beep.wav" {
		t.Errorf("name = %q", arts[0].Name)
	}
	if string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 8000 {
		t.Errorf("sample rate = %d, want 8000", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != 4 {
		t.Errorf("data chunk size = %d, want 4", got)
	}
	if !bytes.Equal(wav[44:], a.Data) {
		t.Error("sample payload not carried through")
	}
}

func TestConvertAudioVorbisPassthrough(t *testing.T) {
	payload := []byte("OggS\x00fake")
	a := &asset.Audio{Name: "music", Codec: asset.AudioVorbis, Data: payload}
	arts, err := Convert(a, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if arts[0].Name != "music.ogg" || !bytes.Equal(arts[0].Data, payload) {
		t.Errorf("expected untouched ogg payload, got %q", arts[0].Name)
	}
}

func TestConvertMaterialJSON(t *testing.T) {
	m := &asset.Material{
		Name:   "steel",
		Shader: "Standard",
		Properties: []asset.Property{
			{Name: "_Metallic", Kind: asset.PropFloat, Values: [4]float32{0.9}},
			{Name: "_Color", Kind: asset.PropColor, Values: [4]float32{0.5, 0.5, 0.5, 1}},
		},
	}
	arts, err := Convert(m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var doc materialDocument
	if err := json.Unmarshal(arts[0].Data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Shader != "Standard" || len(doc.Properties) != 2 {
		t.Fatalf("doc = %+v", doc)
	}
	if len(doc.Properties[0].Values) != 1 {
		t.Errorf("float property carries %d values, want 1", len(doc.Properties[0].Values))
	}
	if len(doc.Properties[1].Values) != 4 {
		t.Errorf("color property carries %d values, want 4", len(doc.Properties[1].Values))
	}
}

func TestConvertRawPassthrough(t *testing.T) {
	r := &asset.Raw{Name: "blob", Data: []byte{1, 2, 3}}
	arts, err := Convert(r, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if arts[0].Name != "blob.bin" || !bytes.Equal(arts[0].Data, []byte{1, 2, 3}) {
		t.Errorf("raw passthrough mangled: %+v", arts[0])
	}
}
