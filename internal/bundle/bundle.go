package bundle

import (
	"context"
	"fmt"
)

// DefaultMaxDecompressedSize caps the summed uncompressed block sizes so
// a small malicious input cannot balloon into an enormous allocation.
const DefaultMaxDecompressedSize = 1 << 30 // 1 GiB

// Options tune parsing. The zero value is usable.
type Options struct {
	// MaxDecompressedSize overrides DefaultMaxDecompressedSize when > 0.
	MaxDecompressedSize int64

	// Workers bounds the block decompression pool. <= 0 means GOMAXPROCS.
	Workers int
}

// Note records a header oddity that is not fatal on its own but feeds the
// compliance scanner as a suspicious-header signal.
type Note struct {
	Code   string
	Detail string
}

// Note codes emitted by the reader.
const (
	NoteBlockTableSizeMismatch = "block-table-size-mismatch"
	NoteBundleSizeMismatch     = "bundle-size-mismatch"
)

// Bundle is a fully parsed container: validated header, block table,
// directory, and the decompressed virtual address space. Header, Blocks
// and Entries are immutable after Open; the payload buffer is shared
// read-only by every object resolved from it.
type Bundle struct {
	Header  Header
	Blocks  []BlockDescriptor
	Entries []DirectoryEntry
	Notes   []Note

	payload []byte
}

// Data returns the decompressed virtual address space. Callers must treat
// it as read-only; object records hold bounded views into it.
func (b *Bundle) Data() []byte {
	return b.payload
}

// Open parses a complete bundle from untrusted bytes. Header, block table
// and directory failures abort the whole parse; nothing downstream of a
// bad header is trustworthy.
func Open(ctx context.Context, data []byte, opts *Options) (*Bundle, error) {
	maxSize := int64(DefaultMaxDecompressedSize)
	workers := 0
	if opts != nil {
		if opts.MaxDecompressedSize > 0 {
			maxSize = opts.MaxDecompressedSize
		}
		workers = opts.Workers
	}

	r := &reader{data: data}
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var notes []Note

	// The declared size bounds everything the reader may touch. A larger
	// declaration than the actual input is recorded and parsing proceeds
	// against what is actually present.
	if header.Size != uint64(len(data)) {
		notes = append(notes, Note{
			Code:   NoteBundleSizeMismatch,
			Detail: fmt.Sprintf("declared %d bytes, input has %d", header.Size, len(data)),
		})
		if header.Size < uint64(len(data)) {
			r.data = data[:header.Size]
		}
	}

	if header.Compression() == SchemeNone && header.CompressedBlockTableSize != header.UncompressedBlockTableSize {
		notes = append(notes, Note{
			Code:   NoteBlockTableSizeMismatch,
			Detail: fmt.Sprintf("uncompressed table declares sizes %d/%d", header.CompressedBlockTableSize, header.UncompressedBlockTableSize),
		})
	}

	tableBytes, err := r.take(int(header.CompressedBlockTableSize))
	if err != nil {
		return nil, fmt.Errorf("reading block table: %w", err)
	}
	tableData := tableBytes
	if header.Compression() != SchemeNone {
		tableData, err = decompress(tableBytes, header.Compression(), header.Family(), int(header.UncompressedBlockTableSize))
		if err != nil {
			return nil, fmt.Errorf("decompressing block table: %w", err)
		}
	}

	table := &reader{data: tableData}
	blocks, total, err := readBlockTable(table, maxSize)
	if err != nil {
		return nil, err
	}

	var entries []DirectoryEntry
	if !header.DirectoryAtEnd() {
		if entries, err = readDirectory(table); err != nil {
			return nil, err
		}
	}

	payload := r.data[r.off:]
	if header.DirectoryAtEnd() {
		var compressed int64
		for _, blk := range blocks {
			compressed += int64(blk.CompressedSize)
		}
		if compressed > int64(len(payload)) {
			return nil, fmt.Errorf("%w: blocks declare %d compressed bytes, %d remain", ErrTruncatedInput, compressed, len(payload))
		}
		trailer := &reader{data: payload[compressed:]}
		if entries, err = readDirectory(trailer); err != nil {
			return nil, err
		}
		payload = payload[:compressed]
	}

	arena, err := decompressBlocks(ctx, payload, blocks, header.Family(), total, workers)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Header:  header,
		Blocks:  blocks,
		Entries: entries,
		Notes:   notes,
		payload: arena,
	}, nil
}
