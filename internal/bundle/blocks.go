package bundle

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// BlockDescriptor describes one compressed payload block. Entry offsets
// in the directory are relative to the concatenation of all blocks'
// uncompressed data, in table order.
type BlockDescriptor struct {
	UncompressedSize uint32
	CompressedSize   uint32
	Flags            uint16
}

// Compression returns the block's individual compression scheme.
func (b BlockDescriptor) Compression() Scheme {
	return Scheme(b.Flags & compressionMask)
}

// readBlockTable parses the block descriptors from the (already
// decompressed) block-table region and validates the accumulated
// uncompressed length against maxSize.
func readBlockTable(r *reader, maxSize int64) ([]BlockDescriptor, int64, error) {
	count, err := r.u32()
	if err != nil {
		return nil, 0, fmt.Errorf("reading block count: %w", err)
	}

	// Each descriptor is 10 bytes; reject counts the region cannot hold
	// before allocating.
	if int64(count)*10 > int64(r.remaining()) {
		return nil, 0, fmt.Errorf("%w: block count %d exceeds table region of %d bytes", ErrTruncatedInput, count, r.remaining())
	}

	blocks := make([]BlockDescriptor, count)
	var total int64
	for i := range blocks {
		if blocks[i].UncompressedSize, err = r.u32(); err != nil {
			return nil, 0, fmt.Errorf("block %d: %w", i, err)
		}
		if blocks[i].CompressedSize, err = r.u32(); err != nil {
			return nil, 0, fmt.Errorf("block %d: %w", i, err)
		}
		if blocks[i].Flags, err = r.u16(); err != nil {
			return nil, 0, fmt.Errorf("block %d: %w", i, err)
		}
		total += int64(blocks[i].UncompressedSize)
		if total > maxSize {
			return nil, 0, fmt.Errorf("%w: blocks declare %d uncompressed bytes, limit %d", ErrSizeLimit, total, maxSize)
		}
	}

	return blocks, total, nil
}

// blockRange pairs a block with its compressed input slice and its
// destination range in the virtual address space.
type blockRange struct {
	index      int
	compressed []byte
	dst        []byte
}

// decompressBlocks expands every payload block into one contiguous
// buffer. Blocks are independent once their input slices and output
// ranges are known, so they run on a bounded worker pool; each worker
// owns a disjoint destination range. Cancellation is checked between
// blocks, not mid-decompression.
func decompressBlocks(ctx context.Context, payload []byte, blocks []BlockDescriptor, family Family, total int64, workers int) ([]byte, error) {
	arena := make([]byte, total)

	// Slice inputs and outputs sequentially; individual block sizes were
	// validated by readBlockTable but the compressed slices still have to
	// fit the remaining input.
	ranges := make([]blockRange, len(blocks))
	in, out := 0, 0
	for i, blk := range blocks {
		if int64(blk.CompressedSize) > int64(len(payload)-in) {
			return nil, fmt.Errorf("%w: block %d declares %d compressed bytes, %d remain", ErrTruncatedInput, i, blk.CompressedSize, len(payload)-in)
		}
		ranges[i] = blockRange{
			index:      i,
			compressed: payload[in : in+int(blk.CompressedSize)],
			dst:        arena[out : out+int(blk.UncompressedSize)],
		}
		in += int(blk.CompressedSize)
		out += int(blk.UncompressedSize)
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(ranges) {
		workers = len(ranges)
	}
	if workers <= 1 {
		for _, br := range ranges {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := decompressInto(br.dst, br.compressed, blocks[br.index].Compression(), family); err != nil {
				return nil, fmt.Errorf("block %d: %w", br.index, err)
			}
		}
		return arena, nil
	}

	tasks := make(chan blockRange)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for br := range tasks {
				if err := ctx.Err(); err != nil {
					setErr(err)
					continue
				}
				mu.Lock()
				failed := firstErr != nil
				mu.Unlock()
				if failed {
					continue
				}
				if err := decompressInto(br.dst, br.compressed, blocks[br.index].Compression(), family); err != nil {
					setErr(fmt.Errorf("block %d: %w", br.index, err))
				}
			}
		}()
	}

	for _, br := range ranges {
		tasks <- br
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return arena, nil
}
