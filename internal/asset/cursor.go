package asset

import (
	"encoding/binary"
	"fmt"
	"math"
)

// cursor walks a little-endian object sub-layout with bounds checks on
// every read. Object payloads are attacker-controlled just like the
// container framing.
type cursor struct {
	data []byte
	off  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.off
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, fmt.Errorf("object data truncated: need %d bytes at offset %d, have %d", n, c.off, c.remaining())
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}

func (c *cursor) f32() (float32, error) {
	v, err := c.u32()
	return math.Float32frombits(v), err
}

func (c *cursor) skip(n int) error {
	_, err := c.bytes(n)
	return err
}

// alignedString reads a u32 length-prefixed string padded to a 4-byte
// boundary.
func (c *cursor) alignedString() (string, error) {
	n, err := c.u32()
	if err != nil {
		return "", err
	}
	if int64(n) > int64(c.remaining()) {
		return "", fmt.Errorf("string length %d exceeds remaining object data %d", n, c.remaining())
	}
	b, err := c.bytes(int(n))
	if err != nil {
		return "", err
	}
	if pad := (4 - int(n)%4) % 4; pad > 0 {
		if err := c.skip(pad); err != nil {
			return "", err
		}
	}
	return string(b), nil
}
