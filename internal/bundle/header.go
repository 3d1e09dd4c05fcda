package bundle

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Format family discriminators. The family is determined by the signature
// token alone; any other token is rejected rather than guessed at.
type Family int

const (
	FamilyUnknown Family = iota
	// FamilyBaseline is the original container layout ("UnityFS\x00").
	FamilyBaseline
	// FamilyRevised is the later layout ("UnityFS2"). Same framing, but
	// it permits the extended compression schemes (oodle, zstd).
	FamilyRevised
)

func (f Family) String() string {
	switch f {
	case FamilyBaseline:
		return "baseline"
	case FamilyRevised:
		return "revised"
	default:
		return "unknown"
	}
}

const signatureLen = 8

var (
	signatureBaseline = [signatureLen]byte{'U', 'n', 'i', 't', 'y', 'F', 'S', 0}
	signatureRevised  = [signatureLen]byte{'U', 'n', 'i', 't', 'y', 'F', 'S', '2'}
)

// Flag layout shared by the header and per-block flags: low six bits
// select the compression scheme.
const (
	compressionMask = 0x3f

	// flagDirectoryAtEnd moves the directory region to the end of the
	// input, after the payload blocks. Known producers leave it clear,
	// keeping the directory co-located with the block table.
	flagDirectoryAtEnd = 0x40
)

// maxVersionStringLen bounds the scan for the NUL-terminated engine
// version and revision strings so malformed input cannot trigger an
// unbounded read.
const maxVersionStringLen = 64

// Header is the fixed bundle header. Fields are immutable after Open
// validates them; EncodeTo reproduces the original byte layout exactly.
type Header struct {
	Signature      [signatureLen]byte
	Version        uint32
	EngineVersion  string
	EngineRevision string
	Size           uint64

	// Byte lengths of the block-table region as stored in the container
	// and after decompression.
	CompressedBlockTableSize   uint32
	UncompressedBlockTableSize uint32

	Flags uint32
}

// Family maps the signature token to a format family.
func (h *Header) Family() Family {
	switch h.Signature {
	case signatureBaseline:
		return FamilyBaseline
	case signatureRevised:
		return FamilyRevised
	default:
		return FamilyUnknown
	}
}

// Compression returns the scheme used for the block-table region.
func (h *Header) Compression() Scheme {
	return Scheme(h.Flags & compressionMask)
}

// DirectoryAtEnd reports whether the directory region trails the payload
// blocks instead of sharing the block-table region.
func (h *Header) DirectoryAtEnd() bool {
	return h.Flags&flagDirectoryAtEnd != 0
}

// SignatureString returns the signature token with trailing NULs trimmed,
// for display.
func (h *Header) SignatureString() string {
	return string(bytes.TrimRight(h.Signature[:], "\x00"))
}

// readHeader parses the fixed header from the cursor. On success the
// cursor is positioned at the first byte of the block-table region.
func readHeader(r *reader) (Header, error) {
	var h Header

	sig, err := r.take(signatureLen)
	if err != nil {
		return h, fmt.Errorf("reading signature: %w", err)
	}
	copy(h.Signature[:], sig)
	if h.Family() == FamilyUnknown {
		return h, fmt.Errorf("%w: signature %q", ErrUnsupportedFormat, h.SignatureString())
	}

	if h.Version, err = r.u32(); err != nil {
		return h, fmt.Errorf("reading format version: %w", err)
	}
	if h.EngineVersion, err = r.cstring(maxVersionStringLen); err != nil {
		return h, fmt.Errorf("reading engine version: %w", err)
	}
	if h.EngineRevision, err = r.cstring(maxVersionStringLen); err != nil {
		return h, fmt.Errorf("reading engine revision: %w", err)
	}
	if h.Size, err = r.u64(); err != nil {
		return h, fmt.Errorf("reading bundle size: %w", err)
	}
	if h.CompressedBlockTableSize, err = r.u32(); err != nil {
		return h, fmt.Errorf("reading compressed block-table size: %w", err)
	}
	if h.UncompressedBlockTableSize, err = r.u32(); err != nil {
		return h, fmt.Errorf("reading uncompressed block-table size: %w", err)
	}
	if h.Flags, err = r.u32(); err != nil {
		return h, fmt.Errorf("reading flags: %w", err)
	}

	if h.Size < uint64(r.off) {
		return h, fmt.Errorf("%w: declared size %d smaller than header length %d", ErrMalformedHeader, h.Size, r.off)
	}

	return h, nil
}

// EncodeTo re-serializes the header in container byte order. Parsing a
// valid header and encoding it reproduces the original bytes.
func (h *Header) EncodeTo(buf *bytes.Buffer) {
	buf.Write(h.Signature[:])

	var scratch [8]byte
	binary.BigEndian.PutUint32(scratch[:4], h.Version)
	buf.Write(scratch[:4])

	buf.WriteString(h.EngineVersion)
	buf.WriteByte(0)
	buf.WriteString(h.EngineRevision)
	buf.WriteByte(0)

	binary.BigEndian.PutUint64(scratch[:8], h.Size)
	buf.Write(scratch[:8])
	binary.BigEndian.PutUint32(scratch[:4], h.CompressedBlockTableSize)
	buf.Write(scratch[:4])
	binary.BigEndian.PutUint32(scratch[:4], h.UncompressedBlockTableSize)
	buf.Write(scratch[:4])
	binary.BigEndian.PutUint32(scratch[:4], h.Flags)
	buf.Write(scratch[:4])
}

// Encode returns the serialized header bytes.
func (h *Header) Encode() []byte {
	var buf bytes.Buffer
	h.EncodeTo(&buf)
	return buf.Bytes()
}
