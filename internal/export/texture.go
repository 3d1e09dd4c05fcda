package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/bmp"

	"github.com/openrip/openrip/internal/asset"
	"github.com/openrip/openrip/internal/bundle"
)

func convertTexture(t *asset.Texture, opts Options) (Artifact, error) {
	rgba, err := toRGBA(t)
	if err != nil {
		return Artifact{}, err
	}

	img := &image.RGBA{
		Pix:    rgba,
		Stride: int(t.Width) * 4,
		Rect:   image.Rect(0, 0, int(t.Width), int(t.Height)),
	}

	var encode image.Image = img
	if opts.FlipVertical {
		encode = transform.FlipV(img)
	}

	var buf bytes.Buffer
	switch opts.RasterFormat {
	case "", "png":
		if err := png.Encode(&buf, encode); err != nil {
			return Artifact{}, fmt.Errorf("texture %q: png encode: %w", t.Name, err)
		}
		return Artifact{Name: t.Name + ".png", MediaType: "image/png", Data: buf.Bytes()}, nil
	case "bmp":
		if err := bmp.Encode(&buf, encode); err != nil {
			return Artifact{}, fmt.Errorf("texture %q: bmp encode: %w", t.Name, err)
		}
		return Artifact{Name: t.Name + ".bmp", MediaType: "image/bmp", Data: buf.Bytes()}, nil
	}

	return Artifact{}, fmt.Errorf("%w: raster format %q", bundle.ErrUnsupportedConversion, opts.RasterFormat)
}

// toRGBA expands the stored pixel payload to 8-bit RGBA.
func toRGBA(t *asset.Texture) ([]byte, error) {
	w, h := int(t.Width), int(t.Height)
	pixels := w * h

	need := func(n int) error {
		if len(t.Pixels) < n {
			return fmt.Errorf("texture %q: %s payload has %d bytes, need %d", t.Name, t.Format, len(t.Pixels), n)
		}
		return nil
	}

	switch t.Format {
	case asset.TexRGBA32:
		if err := need(pixels * 4); err != nil {
			return nil, err
		}
		out := make([]byte, pixels*4)
		copy(out, t.Pixels)
		return out, nil

	case asset.TexARGB32:
		if err := need(pixels * 4); err != nil {
			return nil, err
		}
		out := make([]byte, 0, pixels*4)
		for i := 0; i < pixels*4; i += 4 {
			p := t.Pixels[i : i+4]
			out = append(out, p[1], p[2], p[3], p[0])
		}
		return out, nil

	case asset.TexBGRA32:
		if err := need(pixels * 4); err != nil {
			return nil, err
		}
		out := make([]byte, 0, pixels*4)
		for i := 0; i < pixels*4; i += 4 {
			p := t.Pixels[i : i+4]
			out = append(out, p[2], p[1], p[0], p[3])
		}
		return out, nil

	case asset.TexRGB24:
		if err := need(pixels * 3); err != nil {
			return nil, err
		}
		out := make([]byte, 0, pixels*4)
		for i := 0; i < pixels*3; i += 3 {
			out = append(out, t.Pixels[i], t.Pixels[i+1], t.Pixels[i+2], 0xff)
		}
		return out, nil

	case asset.TexAlpha8:
		if err := need(pixels); err != nil {
			return nil, err
		}
		out := make([]byte, 0, pixels*4)
		for _, a := range t.Pixels[:pixels] {
			out = append(out, 0xff, 0xff, 0xff, a)
		}
		return out, nil

	case asset.TexRGB565:
		if err := need(pixels * 2); err != nil {
			return nil, err
		}
		out := make([]byte, 0, pixels*4)
		for i := 0; i < pixels*2; i += 2 {
			v := uint16(t.Pixels[i]) | uint16(t.Pixels[i+1])<<8
			r, g, b := rgb565(v)
			out = append(out, r, g, b, 0xff)
		}
		return out, nil

	case asset.TexDXT1:
		return decodeDXT1(t.Pixels, w, h)

	case asset.TexDXT5:
		return decodeDXT5(t.Pixels, w, h)
	}

	return nil, fmt.Errorf("%w: texture format %s", bundle.ErrUnsupportedConversion, t.Format)
}

func rgb565(v uint16) (r, g, b uint8) {
	r = uint8((uint32(v>>11&0x1f)*255 + 15) / 31)
	g = uint8((uint32(v>>5&0x3f)*255 + 31) / 63)
	b = uint8((uint32(v&0x1f)*255 + 15) / 31)
	return
}
