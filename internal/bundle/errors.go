package bundle

import "errors"

// Sentinel errors for the container pipeline. Callers match these with
// errors.Is; the wrapped message carries stage and offset context.
var (
	// ErrUnsupportedFormat indicates an unrecognized signature token or a
	// structural variant this reader does not know how to parse.
	ErrUnsupportedFormat = errors.New("unsupported bundle format")

	// ErrMalformedHeader indicates a header field that could not be read,
	// e.g. a version string with no terminator within the scan bound.
	ErrMalformedHeader = errors.New("malformed bundle header")

	// ErrTruncatedInput indicates a size or offset field pointing past the
	// end of the available input.
	ErrTruncatedInput = errors.New("truncated bundle input")

	// ErrUnsupportedCompression indicates a compression scheme flag this
	// reader does not implement, or one not valid for the format family.
	ErrUnsupportedCompression = errors.New("unsupported compression scheme")

	// ErrTruncatedDirectory indicates the directory region ran out before
	// the declared entry count was reached.
	ErrTruncatedDirectory = errors.New("truncated directory")

	// ErrOutOfBounds indicates a directory entry whose offset+size exceeds
	// the virtual address space. Recorded per entry, never fatal.
	ErrOutOfBounds = errors.New("entry out of bounds")

	// ErrUnsupportedAssetKind indicates an object kind with no registered
	// decoder. The object passes through as raw bytes.
	ErrUnsupportedAssetKind = errors.New("unsupported asset kind")

	// ErrUnsupportedConversion indicates a decoded asset that cannot be
	// converted to the requested output format.
	ErrUnsupportedConversion = errors.New("unsupported conversion")

	// ErrComplianceBlocked indicates a blocking compliance finding stopped
	// extraction output. Never downgraded silently.
	ErrComplianceBlocked = errors.New("extraction blocked by compliance finding")

	// ErrSizeLimit indicates the declared uncompressed size of the bundle
	// exceeds the configured maximum.
	ErrSizeLimit = errors.New("declared size exceeds configured limit")
)
