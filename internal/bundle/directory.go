package bundle

import "fmt"

// maxEntryNameLen bounds the NUL scan for directory entry names.
const maxEntryNameLen = 256

// DirectoryEntry locates one named asset inside the virtual address
// space. Names are not assumed unique; duplicates are surfaced as
// independent entries and left to the compliance scanner.
type DirectoryEntry struct {
	Offset uint64
	Size   uint64
	Flags  uint32
	Name   string
}

// readDirectory parses the declared number of entries from the cursor.
// Running out of input before the count is reached is a
// TruncatedDirectory error; the whole bundle is untrustworthy at that
// point.
func readDirectory(r *reader) ([]DirectoryEntry, error) {
	count, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("reading entry count: %w", err)
	}

	// An entry is at least 22 bytes (two u64, one u32, one-byte name
	// with terminator is invalid but the name needs its NUL).
	if int64(count)*21 > int64(r.remaining()) {
		return nil, fmt.Errorf("%w: %d entries declared, %d bytes remain", ErrTruncatedDirectory, count, r.remaining())
	}

	entries := make([]DirectoryEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var e DirectoryEntry
		if e.Offset, err = r.u64(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrTruncatedDirectory, i, err)
		}
		if e.Size, err = r.u64(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrTruncatedDirectory, i, err)
		}
		if e.Flags, err = r.u32(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrTruncatedDirectory, i, err)
		}
		if e.Name, err = r.cstring(maxEntryNameLen); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrTruncatedDirectory, i, err)
		}
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty name", ErrTruncatedDirectory, i)
		}
		entries = append(entries, e)
	}

	return entries, nil
}
