package bundle

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/oriath-net/gooz"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"
)

// Scheme identifies the compression applied to the block-table region or
// to an individual payload block. Values are container protocol constants.
type Scheme uint16

const (
	SchemeNone Scheme = 0
	SchemeLZMA Scheme = 1
	SchemeLZ4  Scheme = 2
	// SchemeLZ4HC is high-compression LZ4. Decoding is identical to LZ4.
	SchemeLZ4HC Scheme = 3
	// SchemeOodle and SchemeZstd are only valid in revised-family bundles.
	SchemeOodle Scheme = 4
	SchemeZstd  Scheme = 5
)

func (s Scheme) String() string {
	switch s {
	case SchemeNone:
		return "none"
	case SchemeLZMA:
		return "lzma"
	case SchemeLZ4:
		return "lz4"
	case SchemeLZ4HC:
		return "lz4hc"
	case SchemeOodle:
		return "oodle"
	case SchemeZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(s))
	}
}

// validFor reports whether the scheme may appear in a bundle of the given
// family. The extended schemes were introduced with the revised layout.
func (s Scheme) validFor(f Family) bool {
	switch s {
	case SchemeNone, SchemeLZMA, SchemeLZ4, SchemeLZ4HC:
		return true
	case SchemeOodle, SchemeZstd:
		return f == FamilyRevised
	default:
		return false
	}
}

// decompress expands src into exactly uncompressedSize bytes using the
// given scheme. The size is verified; a mismatch is an error, never
// silently accepted.
func decompress(src []byte, s Scheme, family Family, uncompressedSize int) ([]byte, error) {
	dst := make([]byte, uncompressedSize)
	if err := decompressInto(dst, src, s, family); err != nil {
		return nil, err
	}
	return dst, nil
}

// decompressInto decodes src into the caller-owned dst, which must be
// exactly the uncompressed length. The block worker pool hands each
// worker a disjoint arena range as dst, so no copies or locks are needed
// on the shared buffer.
func decompressInto(dst, src []byte, s Scheme, family Family) error {
	if !s.validFor(family) {
		return fmt.Errorf("%w: scheme %s in %s-family bundle", ErrUnsupportedCompression, s, family)
	}

	switch s {
	case SchemeNone:
		if len(src) != len(dst) {
			return fmt.Errorf("%w: stored block of %d bytes declares uncompressed size %d", ErrTruncatedInput, len(src), len(dst))
		}
		copy(dst, src)
		return nil

	case SchemeLZMA:
		r, err := lzma.NewReader(bytes.NewReader(src))
		if err != nil {
			return fmt.Errorf("lzma header: %w", err)
		}
		if _, err := io.ReadFull(r, dst); err != nil {
			return fmt.Errorf("lzma decompress: %w", err)
		}
		return nil

	case SchemeLZ4, SchemeLZ4HC:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return fmt.Errorf("lz4 decompress: %w", err)
		}
		if n != len(dst) {
			return fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, len(dst))
		}
		return nil

	case SchemeOodle:
		if _, err := gooz.Decompress(src, dst); err != nil {
			return fmt.Errorf("oodle decompress: %w", err)
		}
		return nil

	case SchemeZstd:
		// Stream into the caller's buffer so a hostile frame can never
		// materialize more than the declared (and already capped) size.
		r, err := zstd.NewReader(bytes.NewReader(src), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return fmt.Errorf("zstd decompress: %w", err)
		}
		defer r.Close()
		if _, err := io.ReadFull(r, dst); err != nil {
			return fmt.Errorf("zstd decompress: %w", err)
		}
		var extra [1]byte
		if n, _ := r.Read(extra[:]); n != 0 {
			return fmt.Errorf("zstd decompress: output exceeds declared size %d", len(dst))
		}
		return nil
	}

	return fmt.Errorf("%w: scheme %s", ErrUnsupportedCompression, s)
}
