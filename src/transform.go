package cqtscope

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Transform Executor (spec section 4.4, component C4).
 *		Convolves a contiguous analysis window against the
 *		Kernel Bank on a (bin, frame) grid, producing one
 *		magnitude per cell. Every cell is independent; Dispatch
 *		runs them over a worker pool (dispatch.go),
 *		DispatchSerial runs them in row-major order for
 *		determinism tests (spec section 4.4's "a serial
 *		implementation must produce bit-identical results").
 *
 *------------------------------------------------------------------*/

// Magnitude is the executor's output: a dense [NumFrames x NumBins]
// matrix, row-major by frame (spec section 6), M[f*RowStride+k].
// RowStride equals NumBins here - this implementation never pads a
// row - but is reported explicitly per spec section 4.4's requirement
// that any padded stride be documented.
type Magnitude struct {
	Data              []float32
	NumFrames         int
	NumBins           int
	RowStride         int
	LogicalStartFrame uint64 // logical column index of frame 0
}

// Frame returns an unpadded view of frame f's NumBins magnitudes.
func (m *Magnitude) Frame(f int) []float32 {
	Assert(f >= 0 && f < m.NumFrames, "frame index out of range")
	start := f * m.RowStride
	return m.Data[start : start+m.NumBins]
}

// Executor applies a KernelBank to analysis buffers. It holds no
// mutable state beyond the bank it was built from and may be shared
// across goroutines.
type Executor struct {
	kb *KernelBank
}

// NewExecutor binds an Executor to a KernelBank.
func NewExecutor(kb *KernelBank) *Executor {
	return &Executor{kb: kb}
}

// KernelBank returns the bank this executor convolves against.
func (e *Executor) KernelBank() *KernelBank { return e.kb }

// MaxFrames returns the maximum number of frames computable from a
// window of the given length: floor((audioLength - max_kernel_length)
// / hop_length) + 1, or 0 if the window is shorter than
// max_kernel_length (spec section 4.4's InsufficientSamples case -
// silent, not an error).
func (e *Executor) MaxFrames(audioLength int) int {
	mkl := e.kb.MaxKernelLength()
	if audioLength < mkl {
		return 0
	}
	hop := e.kb.Config().HopLength
	return (audioLength-mkl)/hop + 1
}

// cell computes M[f,k] for a single (bin, frame) pair: the magnitude
// of the complex correlation between the audio window starting at
// (f+frameOffset)*hop and bin k's kernel. Samples past the end of
// audio are treated as zero (the loop simply stops, per spec section
// 4.4).
func (e *Executor) cell(audio []float32, frameOffset, f, k int) float32 {
	hop := e.kb.Config().HopLength
	start := (f + frameOffset) * hop
	l := e.kb.KernelLength(k)
	re := e.kb.RealRow(k)
	im := e.kb.ImagRow(k)

	var sumRe, sumIm float64
	for n := 0; n < l; n++ {
		idx := start + n
		if idx >= len(audio) {
			break
		}
		s := float64(audio[idx])
		sumRe += s * float64(re[n])
		sumIm += s * float64(im[n])
	}

	return float32(math.Sqrt(sumRe*sumRe + sumIm*sumIm))
}

// clampFrames caps a requested frame count to what audio actually
// supports, per spec section 4.4: "Callers must not request more; the
// executor clamps silently if they do and reports the actual count."
func (e *Executor) clampFrames(audioLength, frameOffset, numFrames int) int {
	max := e.MaxFrames(audioLength)
	avail := max - frameOffset
	if avail < 0 {
		avail = 0
	}
	if numFrames > avail {
		numFrames = avail
	}
	if numFrames < 0 {
		numFrames = 0
	}
	return numFrames
}

// DispatchSerial computes the full (bin, frame) grid in row-major
// order on the calling goroutine. Used for golden/determinism
// comparisons against the parallel path.
func (e *Executor) DispatchSerial(audio []float32, frameOffset, numFrames int) *Magnitude {
	numFrames = e.clampFrames(len(audio), frameOffset, numFrames)
	numBins := e.kb.NumBins()

	m := &Magnitude{
		Data:      make([]float32, numFrames*numBins),
		NumFrames: numFrames,
		NumBins:   numBins,
		RowStride: numBins,
	}

	for f := 0; f < numFrames; f++ {
		row := m.Data[f*numBins : (f+1)*numBins]
		for k := 0; k < numBins; k++ {
			row[k] = e.cell(audio, frameOffset, f, k)
		}
	}

	return m
}

// Dispatch computes the full (bin, frame) grid using the worker pool
// in dispatch.go, tiling work into the 8x8 (bin, frame) blocks
// recommended by spec section 4.4. It is the only operation in the
// pipeline that may suspend (spec section 5).
func (e *Executor) Dispatch(audio []float32, frameOffset, numFrames int) (*Magnitude, error) {
	numFrames = e.clampFrames(len(audio), frameOffset, numFrames)
	numBins := e.kb.NumBins()

	m := &Magnitude{
		Data:      make([]float32, numFrames*numBins),
		NumFrames: numFrames,
		NumBins:   numBins,
		RowStride: numBins,
	}

	if numFrames == 0 {
		return m, nil
	}

	if err := dispatchTiles(e, audio, frameOffset, m); err != nil {
		return nil, &DispatchFailure{Err: err}
	}

	return m, nil
}
