package asset

import (
	"fmt"

	"github.com/openrip/openrip/internal/object"
)

// TextureFormat is the engine's pixel format discriminant.
type TextureFormat int32

const (
	TexAlpha8 TextureFormat = 1
	TexRGB24  TextureFormat = 3
	TexRGBA32 TextureFormat = 4
	TexARGB32 TextureFormat = 5
	TexRGB565 TextureFormat = 7
	TexDXT1   TextureFormat = 10
	TexDXT5   TextureFormat = 12
	TexBGRA32 TextureFormat = 14
)

func (f TextureFormat) String() string {
	switch f {
	case TexAlpha8:
		return "Alpha8"
	case TexRGB24:
		return "RGB24"
	case TexRGBA32:
		return "RGBA32"
	case TexARGB32:
		return "ARGB32"
	case TexRGB565:
		return "RGB565"
	case TexDXT1:
		return "DXT1"
	case TexDXT5:
		return "DXT5"
	case TexBGRA32:
		return "BGRA32"
	default:
		return fmt.Sprintf("format(%d)", int32(f))
	}
}

// Compressed reports whether the format is block-compressed.
func (f TextureFormat) Compressed() bool {
	return f == TexDXT1 || f == TexDXT5
}

// Texture is a decoded texture object: dimensions, pixel format and the
// raw pixel payload, still in the engine's format.
type Texture struct {
	Name     string
	Width    uint32
	Height   uint32
	Format   TextureFormat
	MipCount uint32
	Readable bool
	Pixels   []byte
}

func (t *Texture) AssetName() string      { return t.Name }
func (t *Texture) AssetKind() object.Kind { return object.KindTexture }

// TextureDecoder parses the texture sub-layout: aligned name, width,
// height, format, mip count, readable flag, then a sized pixel payload.
type TextureDecoder struct{}

func (TextureDecoder) Kind() object.Kind { return object.KindTexture }

func (TextureDecoder) Decode(rec *object.Record) (Decoded, error) {
	c := &cursor{data: rec.Data()}

	name, err := c.alignedString()
	if err != nil {
		return nil, fmt.Errorf("texture %q: name: %w", rec.Entry.Name, err)
	}

	var t Texture
	t.Name = name
	if t.Width, err = c.u32(); err != nil {
		return nil, fmt.Errorf("texture %q: width: %w", name, err)
	}
	if t.Height, err = c.u32(); err != nil {
		return nil, fmt.Errorf("texture %q: height: %w", name, err)
	}
	format, err := c.i32()
	if err != nil {
		return nil, fmt.Errorf("texture %q: format: %w", name, err)
	}
	t.Format = TextureFormat(format)
	if t.MipCount, err = c.u32(); err != nil {
		return nil, fmt.Errorf("texture %q: mip count: %w", name, err)
	}
	readable, err := c.u8()
	if err != nil {
		return nil, fmt.Errorf("texture %q: readable flag: %w", name, err)
	}
	t.Readable = readable != 0
	if err := c.skip(3); err != nil {
		return nil, fmt.Errorf("texture %q: padding: %w", name, err)
	}

	size, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("texture %q: data size: %w", name, err)
	}
	if t.Pixels, err = c.bytes(int(size)); err != nil {
		return nil, fmt.Errorf("texture %q: pixel data: %w", name, err)
	}

	if t.Width == 0 || t.Height == 0 {
		return nil, fmt.Errorf("texture %q: zero dimension %dx%d", name, t.Width, t.Height)
	}

	return &t, nil
}
