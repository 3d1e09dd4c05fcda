package bundle

import (
	"encoding/binary"
	"fmt"
)

// reader is a bounds-checked cursor over untrusted input. Every read
// validates remaining length before touching the data; the cursor never
// advances past len(data).
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedInput, n, r.off, r.remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// cstring reads a NUL-terminated string, scanning at most max bytes
// including the terminator. A missing terminator within the bound is a
// malformed-input condition, not a read past the end.
func (r *reader) cstring(max int) (string, error) {
	limit := r.remaining()
	if limit > max {
		limit = max
	}
	for i := 0; i < limit; i++ {
		if r.data[r.off+i] == 0 {
			s := string(r.data[r.off : r.off+i])
			r.off += i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: no string terminator within %d bytes at offset %d", ErrMalformedHeader, max, r.off)
}
