package cqtscope

/*------------------------------------------------------------------
 *
 * Purpose:	Sample Accumulator (spec section 4.2, component C2).
 *		Consumes an arbitrarily chunked Float audio stream into
 *		block_size-sized cells of a Ring of Blocks, reporting
 *		completed blocks and maintaining the indices from
 *		spec section 3: first_valid, last_valid,
 *		first_unprocessed, write_offset_in_block.
 *
 *		Design rationale: separating per-sample accumulation
 *		from per-block processing lets the upstream producer
 *		call AddSamples with any chunk size - one sample to
 *		many megabytes - at identical O(n) copy cost.
 *
 *		(added) Alongside the physical ring indices spec
 *		section 3 names, the accumulator tracks monotonic
 *		completion sequence numbers for last_valid and
 *		first_unprocessed. Spec section 4.2 only defines
 *		mark_processed() clearing first_unprocessed to NONE in
 *		one shot, but section 5 requires "first_unprocessed
 *		advances monotonically through valid blocks" as the
 *		driver consumes them one analysis buffer at a time,
 *		which is smaller than the full pending span in the
 *		common case (analysis_buffer_size is usually many
 *		block_size multiples). AdvanceProcessed(n) is the
 *		(added) operation that performs that partial advance;
 *		MarkProcessed remains exactly the all-at-once operation
 *		spec section 4.2 describes. See DESIGN.md.
 *
 *------------------------------------------------------------------*/

// AnalysisBlock is a fixed-size window into the accumulator's
// contiguous sample arena. Its length is always the accumulator's
// block size; it is owned by the Ring of Blocks and never
// reallocated.
type AnalysisBlock []float32

// None is the sentinel for "no block" used by FirstValid, LastValid,
// and FirstUnprocessed.
const None = -1

// Accumulator implements component C2. It is not safe for concurrent
// use - spec section 5 assigns it to a single producer.
type Accumulator struct {
	ring               *Ring[AnalysisBlock]
	arena              []float32
	blockSize          int
	writeOffsetInBlock int

	lastValid    int
	lastValidSeq uint64

	firstUnprocessed    int
	firstUnprocessedSeq uint64

	totalBlocksCompleted uint64
	logicalSampleIndex   uint64
	overrunCount         uint64
}

// NewAccumulator allocates one contiguous arena of blockSize*maxBlocks
// float32s and carves it into maxBlocks fixed AnalysisBlock cells.
// Nothing is allocated per-sample or per-block thereafter.
func NewAccumulator(blockSize, maxBlocks int) *Accumulator {
	Assert(blockSize > 0, "blockSize must be positive")
	Assert(maxBlocks > 0, "maxBlocks must be positive")

	arena := make([]float32, blockSize*maxBlocks)
	cells := make([]AnalysisBlock, maxBlocks)
	for i := range cells {
		cells[i] = arena[i*blockSize : (i+1)*blockSize : (i+1)*blockSize]
	}

	return &Accumulator{
		ring:             NewRing(cells),
		arena:            arena,
		blockSize:        blockSize,
		lastValid:        None,
		firstUnprocessed: None,
	}
}

// BlockSize returns the fixed cell size.
func (a *Accumulator) BlockSize() int { return a.blockSize }

// MaxBlocks returns the ring capacity.
func (a *Accumulator) MaxBlocks() int { return a.ring.Capacity() }

// FirstValid returns the physical ring index of the oldest still-live
// block, or None if no block has ever been completed.
func (a *Accumulator) FirstValid() int {
	if a.ring.Len() == 0 {
		return None
	}
	return a.ring.ReadIndex()
}

// LastValid returns the physical ring index of the most recently
// completed block, or None.
func (a *Accumulator) LastValid() int { return a.lastValid }

// FirstUnprocessed returns the physical ring index of the oldest
// block not yet consumed by the transform executor, or None.
func (a *Accumulator) FirstUnprocessed() int { return a.firstUnprocessed }

// FirstUnprocessedSeq returns the completion sequence number (0-based,
// monotonic, never reused) of the block FirstUnprocessed refers to,
// and whether one exists. The driver uses it with GetBlockBySeq to
// fetch pending blocks in order without re-deriving their physical
// indices from ring wraparound arithmetic.
func (a *Accumulator) FirstUnprocessedSeq() (uint64, bool) {
	return a.firstUnprocessedSeq, a.firstUnprocessed != None
}

// TotalBlocksCompleted returns how many blocks have ever completed
// (monotonic, never reset by overwrite - only by Reset).
func (a *Accumulator) TotalBlocksCompleted() uint64 { return a.totalBlocksCompleted }

// PendingBlockCount returns how many completed blocks have not yet
// been consumed by the executor.
func (a *Accumulator) PendingBlockCount() uint64 {
	if a.firstUnprocessed == None {
		return 0
	}
	return a.totalBlocksCompleted - a.firstUnprocessedSeq
}

// LogicalSampleIndex returns the total number of samples ever pushed
// through AddSamples - the accumulator's explicit sample clock (spec
// section 9). The driver does not read it: it numbers columns with
// its own running frame counter and dispatches every buffer at
// frame_offset zero.
func (a *Accumulator) LogicalSampleIndex() uint64 { return a.logicalSampleIndex }

// OverrunCount returns how many completed blocks have been silently
// discarded by ring-full overwrite since construction; Reset does not
// clear it. This is the observable diagnostic counter spec section 7
// calls for; it is not itself an error.
func (a *Accumulator) OverrunCount() uint64 { return a.overrunCount }

// AddSamples copies src into the ring starting at the current write
// position, completing and rotating blocks as they fill. It returns
// the number of blocks that crossed the block_size boundary during
// this call. Samples within src are consumed strictly in order.
func (a *Accumulator) AddSamples(src []float32) int {
	blocksCompleted := 0

	for len(src) > 0 {
		cell := a.ring.CurrentWriteCell()
		n := copy((*cell)[a.writeOffsetInBlock:], src)
		a.writeOffsetInBlock += n
		a.logicalSampleIndex += uint64(n)
		src = src[n:]

		if a.writeOffsetInBlock < a.blockSize {
			// Block not yet full; src must be exhausted.
			break
		}

		thisSeq := a.totalBlocksCompleted
		a.totalBlocksCompleted++

		wasFull := a.ring.Len() == a.ring.Capacity()
		reclaimed := a.ring.ReadIndex()
		committed := a.ring.WriteIndex()

		a.ring.AdvanceWrite()

		a.lastValid = committed
		a.lastValidSeq = thisSeq

		switch {
		case a.firstUnprocessed == None:
			a.firstUnprocessed = committed
			a.firstUnprocessedSeq = thisSeq
		case wasFull && reclaimed == a.firstUnprocessed:
			// The block we hadn't processed yet was just
			// reclaimed by the overwrite; the oldest
			// remaining valid block becomes the new
			// first_unprocessed so the invariant
			// first_unprocessed in valid_span still holds.
			a.firstUnprocessed = a.ring.ReadIndex()
			a.firstUnprocessedSeq = a.totalBlocksCompleted - uint64(a.ring.Len())
		}
		if wasFull {
			a.overrunCount++
		}

		a.writeOffsetInBlock = 0
		blocksCompleted++
	}

	return blocksCompleted
}

// MarkProcessed clears first_unprocessed. Idempotent: calling it
// twice in a row is equivalent to calling it once.
func (a *Accumulator) MarkProcessed() {
	a.firstUnprocessed = None
}

// AdvanceProcessed marks the oldest n pending blocks as consumed,
// moving first_unprocessed forward by n blocks in ring order rather
// than clearing it outright. n must not exceed PendingBlockCount().
// This is the incremental counterpart to MarkProcessed that spec
// section 5's "first_unprocessed advances monotonically" requires
// when a driver consumes pending blocks one analysis buffer at a
// time.
func (a *Accumulator) AdvanceProcessed(n int) {
	if n <= 0 {
		return
	}
	Assert(a.firstUnprocessed != None, "AdvanceProcessed called with nothing pending")
	newSeq := a.firstUnprocessedSeq + uint64(n)
	Assert(newSeq <= a.totalBlocksCompleted, "AdvanceProcessed past the last completed block")

	if newSeq == a.totalBlocksCompleted {
		a.firstUnprocessed = None
		return
	}
	a.firstUnprocessedSeq = newSeq
	a.firstUnprocessed = int(newSeq % uint64(a.ring.Capacity()))
}

// GetBlock returns a direct read-only view of the cell at a physical
// ring index. Out-of-range indices are a programmer error.
func (a *Accumulator) GetBlock(index int) AnalysisBlock {
	return *a.ring.At(index)
}

// GetBlockBySeq returns the block with a given completion sequence
// number, mapping it to its physical ring index. The caller is
// responsible for knowing the block hasn't been overwritten yet
// (seq < TotalBlocksCompleted()-ring.Len() would be stale data).
func (a *Accumulator) GetBlockBySeq(seq uint64) AnalysisBlock {
	return a.GetBlock(int(seq % uint64(a.ring.Capacity())))
}

// Reset returns all indices to their initial state. Backing memory is
// left untouched; the overrun counter is not reset, matching
// direwolf's audio_stats pattern of a diagnostic counter that persists
// across stream restarts within one process.
func (a *Accumulator) Reset() {
	a.ring.Reset()
	a.writeOffsetInBlock = 0
	a.lastValid = None
	a.lastValidSeq = 0
	a.firstUnprocessed = None
	a.firstUnprocessedSeq = 0
	a.totalBlocksCompleted = 0
	a.logicalSampleIndex = 0
}
