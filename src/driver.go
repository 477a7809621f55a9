package cqtscope

import (
	"time"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Driver is the "surrounding application" spec section 2
 *		describes: it owns one Accumulator, one KernelBank, one
 *		Executor, one MagnitudeRing, and one TileRing, and wires
 *		them together exactly as the data-flow paragraph
 *		describes - audio source -> C2 -> C4 (using C3) -> C5 ->
 *		renderer - including the buffer-to-buffer continuity
 *		rule of spec section 4.4.
 *
 *------------------------------------------------------------------*/

// Driver is the single-producer pipeline driver (spec section 5).
// It is not safe for concurrent PushSamples calls; the transform
// dispatch it triggers internally is the pipeline's only suspension
// point.
type Driver struct {
	cfg    EngineConfig
	acc    *Accumulator
	kb     *KernelBank
	exec   *Executor
	mag    *MagnitudeRing
	tiles  *TileRing
	logger *log.Logger
	stats  *streamStats

	blocksPerBuffer int
	scratch         []float32
	nextColumn      uint64
}

// NewDriver fills in cfg.CQT's defaults (CQTConfig.WithDefaults),
// validates cfg, allocates every ring up front, and builds the kernel
// bank. Nothing is allocated per-sample or per-frame after this
// returns (spec section 3's lifecycle rule). logger may be nil, in
// which case log.Default() is used.
func NewDriver(cfg EngineConfig, logger *log.Logger) (*Driver, error) {
	cfg.CQT = cfg.CQT.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.AnalysisBufferSize%cfg.BlockSize != 0 {
		return nil, &ConfigurationError{
			Field:  "AnalysisBufferSize",
			Reason: "must be a whole multiple of BlockSize",
		}
	}

	kb, err := NewKernelBank(cfg.CQT)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.Default()
	}

	exec := NewExecutor(kb)
	acc := NewAccumulator(cfg.BlockSize, cfg.MaxBlocks)

	magCapacity := cfg.Tile.TileWidth * cfg.Tile.TileCount
	mag := NewMagnitudeRing(magCapacity, kb.NumBins())
	tiles := NewTileRing(cfg.Tile, nil)
	tiles.Configure(mag, kb.NumBins(), magCapacity)

	d := &Driver{
		cfg:             cfg,
		acc:             acc,
		kb:              kb,
		exec:            exec,
		mag:             mag,
		tiles:           tiles,
		logger:          logger,
		stats:           newStreamStats(100 * time.Second),
		blocksPerBuffer: cfg.AnalysisBufferSize / cfg.BlockSize,
		scratch:         make([]float32, cfg.AnalysisBufferSize),
	}

	logger.Debug("kernel bank ready",
		"bins", kb.NumBins(),
		"max_kernel_length", kb.MaxKernelLength(),
		"hop_length", cfg.CQT.HopLength)

	return d, nil
}

// Accumulator, KernelBank, Executor, TileRing expose the driver's
// owned components for callers that need direct access (tests, a
// renderer reading tiles, diagnostics).
func (d *Driver) Accumulator() *Accumulator { return d.acc }
func (d *Driver) KernelBank() *KernelBank   { return d.kb }
func (d *Driver) Executor() *Executor       { return d.exec }
func (d *Driver) TileRing() *TileRing       { return d.tiles }
func (d *Driver) Magnitudes() *MagnitudeRing { return d.mag }

// LogicalColumnCount returns how many magnitude columns have been
// produced so far - the same clock TileRing.WritePosition() publishes.
func (d *Driver) LogicalColumnCount() uint64 { return d.nextColumn }

// PushSamples feeds mono PCM, already normalized to [-1, 1], into the
// accumulator and runs the transform over every analysis buffer's
// worth of newly completed blocks it can assemble. Sample rate must
// match CQTConfig.SampleRate; the engine does not detect a mismatch
// (spec section 6).
func (d *Driver) PushSamples(samples []float32) error {
	d.acc.AddSamples(samples)

	if report, ok := d.stats.observe(uint64(len(samples)), d.acc.OverrunCount(), time.Now()); ok {
		d.logger.Info("stream stats",
			"samples", report.samples,
			"overrun_total", report.overrunTotal,
			"new_overruns", report.newOverruns,
			"seconds", report.elapsedSeconds)
	} else if d.acc.OverrunCount() > 0 {
		d.logger.Debug("accumulator overrun", "total", d.acc.OverrunCount())
	}

	return d.drainPending()
}

// drainPending assembles and dispatches every full analysis buffer's
// worth of pending blocks currently available, in ring order.
// Analysis buffers never overlap (spec section 9's open question on
// input_buffer_overlap is resolved to zero), so each dispatch starts
// at frame_offset zero within its own buffer; the continuity rule of
// spec section 4.4 - logical column numbers never gap or repeat
// across buffers - is instead kept by nextColumn, a running count of
// frames emitted so far, independent of where each buffer's samples
// physically sit.
func (d *Driver) drainPending() error {
	for d.acc.PendingBlockCount() >= uint64(d.blocksPerBuffer) {
		firstSeq, ok := d.acc.FirstUnprocessedSeq()
		if !ok {
			return nil
		}

		for i := 0; i < d.blocksPerBuffer; i++ {
			block := d.acc.GetBlockBySeq(firstSeq + uint64(i))
			copy(d.scratch[i*d.cfg.BlockSize:(i+1)*d.cfg.BlockSize], block)
		}

		m, err := d.exec.Dispatch(d.scratch, 0, d.exec.MaxFrames(len(d.scratch)))
		if err != nil {
			d.logger.Warn("transform dispatch failed", "err", err)
			return err
		}

		m.LogicalStartFrame = d.nextColumn
		d.nextColumn += uint64(m.NumFrames)

		d.mag.Store(m)
		d.tiles.Update(m.LogicalStartFrame, m.LogicalStartFrame+uint64(m.NumFrames))

		d.acc.AdvanceProcessed(d.blocksPerBuffer)
	}

	return nil
}

// Reset returns the accumulator and tile ring to their initial state
// and restarts the logical column clock at zero. Kernel bank and ring
// storage are unaffected - only indices move.
func (d *Driver) Reset() {
	d.acc.Reset()
	d.tiles.Reset()
	d.nextColumn = 0
}
