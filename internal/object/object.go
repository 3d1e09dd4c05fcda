package object

import (
	"fmt"

	"github.com/openrip/openrip/internal/bundle"
)

// Kind is the inferred asset category driving decoder selection.
type Kind int

const (
	KindUnknown Kind = iota
	KindMesh
	KindTexture
	KindMaterial
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindTexture:
		return "texture"
	case KindMaterial:
		return "material"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Directory type-flag values map to kinds through this fixed table. Any
// other value is unknown and passes through undecoded.
const (
	flagMesh     = 2
	flagTexture  = 4
	flagMaterial = 8
	flagAudio    = 16
)

// KindFromFlags maps a directory entry's type flags to a Kind.
func KindFromFlags(flags uint32) Kind {
	switch flags {
	case flagMesh:
		return KindMesh
	case flagTexture:
		return KindTexture
	case flagMaterial:
		return KindMaterial
	case flagAudio:
		return KindAudio
	default:
		return KindUnknown
	}
}

// Record is one resolved directory entry: the entry itself, its inferred
// kind, and a bounded view into the bundle's decompressed buffer. The
// view is non-owning; the buffer stays alive until every decoder and
// converter for the bundle is done.
type Record struct {
	Entry bundle.DirectoryEntry
	Kind  Kind

	data []byte
}

// NewRecord builds a record over an explicit byte view, inferring the
// kind from the entry's type flags.
func NewRecord(e bundle.DirectoryEntry, data []byte) Record {
	return Record{Entry: e, Kind: KindFromFlags(e.Flags), data: data}
}

// Data returns the record's view into the shared decompressed buffer.
// Callers must not mutate it.
func (r *Record) Data() []byte {
	return r.data
}

// Failure records an entry that could not be resolved, with the entry
// retained for reporting.
type Failure struct {
	Entry bundle.DirectoryEntry
	Err   error
}

// Resolve slices the virtual address space into one Record per valid
// directory entry. An entry whose offset+size exceeds the buffer is
// recorded as a Failure and skipped; it never affects any other entry.
func Resolve(b *bundle.Bundle) ([]Record, []Failure) {
	data := b.Data()
	records := make([]Record, 0, len(b.Entries))
	var failures []Failure

	for _, e := range b.Entries {
		end := e.Offset + e.Size
		if end < e.Offset || end > uint64(len(data)) {
			failures = append(failures, Failure{
				Entry: e,
				Err: fmt.Errorf("%w: %q spans [%d, %d) in a %d-byte space",
					bundle.ErrOutOfBounds, e.Name, e.Offset, end, len(data)),
			})
			continue
		}
		records = append(records, NewRecord(e, data[e.Offset:end]))
	}

	return records, failures
}
