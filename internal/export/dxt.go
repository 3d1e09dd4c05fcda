package export

import "fmt"

// DXT textures are stored as 4x4 pixel blocks. DXT1 packs a block into
// 8 bytes (two RGB565 endpoints plus 2-bit selectors), DXT5 prepends an
// 8-byte interpolated alpha block.

func decodeDXT1(data []byte, w, h int) ([]byte, error) {
	bw, bh := (w+3)/4, (h+3)/4
	if len(data) < bw*bh*8 {
		return nil, fmt.Errorf("dxt1 payload has %d bytes, need %d", len(data), bw*bh*8)
	}
	out := make([]byte, w*h*4)
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			block := data[(by*bw+bx)*8:]
			decodeColorBlock(block, out, w, h, bx*4, by*4, true)
		}
	}
	return out, nil
}

func decodeDXT5(data []byte, w, h int) ([]byte, error) {
	bw, bh := (w+3)/4, (h+3)/4
	if len(data) < bw*bh*16 {
		return nil, fmt.Errorf("dxt5 payload has %d bytes, need %d", len(data), bw*bh*16)
	}
	out := make([]byte, w*h*4)
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			block := data[(by*bw+bx)*16:]
			decodeColorBlock(block[8:], out, w, h, bx*4, by*4, false)
			decodeAlphaBlock(block[:8], out, w, h, bx*4, by*4)
		}
	}
	return out, nil
}

// decodeColorBlock expands one 8-byte color block into out at (ox, oy).
// In DXT1 mode an endpoint ordering of c0 <= c1 selects the punch-through
// palette where index 3 is transparent black.
func decodeColorBlock(block, out []byte, w, h, ox, oy int, dxt1 bool) {
	c0 := uint16(block[0]) | uint16(block[1])<<8
	c1 := uint16(block[2]) | uint16(block[3])<<8

	var palette [4][4]uint8
	r0, g0, b0 := rgb565(c0)
	r1, g1, b1 := rgb565(c1)
	palette[0] = [4]uint8{r0, g0, b0, 0xff}
	palette[1] = [4]uint8{r1, g1, b1, 0xff}

	if !dxt1 || c0 > c1 {
		palette[2] = [4]uint8{
			uint8((2*uint32(r0) + uint32(r1)) / 3),
			uint8((2*uint32(g0) + uint32(g1)) / 3),
			uint8((2*uint32(b0) + uint32(b1)) / 3),
			0xff,
		}
		palette[3] = [4]uint8{
			uint8((uint32(r0) + 2*uint32(r1)) / 3),
			uint8((uint32(g0) + 2*uint32(g1)) / 3),
			uint8((uint32(b0) + 2*uint32(b1)) / 3),
			0xff,
		}
	} else {
		palette[2] = [4]uint8{
			uint8((uint32(r0) + uint32(r1)) / 2),
			uint8((uint32(g0) + uint32(g1)) / 2),
			uint8((uint32(b0) + uint32(b1)) / 2),
			0xff,
		}
		palette[3] = [4]uint8{0, 0, 0, 0}
	}

	for py := 0; py < 4; py++ {
		row := block[4+py]
		for px := 0; px < 4; px++ {
			x, y := ox+px, oy+py
			if x >= w || y >= h {
				continue
			}
			c := palette[row>>(uint(px)*2)&3]
			i := (y*w + x) * 4
			out[i+0] = c[0]
			out[i+1] = c[1]
			out[i+2] = c[2]
			out[i+3] = c[3]
		}
	}
}

// decodeAlphaBlock overwrites the alpha channel written by the color pass.
func decodeAlphaBlock(block, out []byte, w, h, ox, oy int) {
	a0, a1 := uint32(block[0]), uint32(block[1])

	var alphas [8]uint8
	alphas[0] = uint8(a0)
	alphas[1] = uint8(a1)
	if a0 > a1 {
		for i := uint32(1); i < 7; i++ {
			alphas[i+1] = uint8(((7-i)*a0 + i*a1) / 7)
		}
	} else {
		for i := uint32(1); i < 5; i++ {
			alphas[i+1] = uint8(((5-i)*a0 + i*a1) / 5)
		}
		alphas[6] = 0
		alphas[7] = 0xff
	}

	// 16 3-bit selectors packed little-endian across 6 bytes.
	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(block[2+i]) << (uint(i) * 8)
	}

	for py := 0; py < 4; py++ {
		for px := 0; px < 4; px++ {
			x, y := ox+px, oy+py
			if x >= w || y >= h {
				continue
			}
			sel := bits >> (uint(py*4+px) * 3) & 7
			out[(y*w+x)*4+3] = alphas[sel]
		}
	}
}
