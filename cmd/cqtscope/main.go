package main

/*------------------------------------------------------------------
 *
 * Purpose:	Main program for cqtscope, a streaming Constant-Q
 *		Transform analysis engine:
 *
 *			Sample accumulator with overwrite-on-full ring.
 *			Geometric-frequency CQT kernel bank.
 *			Data-parallel transform dispatch over a worker pool.
 *			Spectrogram tile ring for a renderer to read.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	cqtscope "github.com/go-cqt/cqtscope/src"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

/*-------------------------------------------------------------------
 *
 * Name:	main
 *
 * Purpose:	Drive the CQT engine over either a raw little-endian
 *		float32 mono PCM file (--input), stdin (--input -), or a
 *		synthesized sine wave (--selftest), and optionally write
 *		a binary diagnostic dump of the resulting magnitude grid.
 *
 * Inputs:	Command line arguments.  See usage message for details.
 *
 * Outputs:	Periodic stream statistics on stderr (via the
 *		structured logger); an optional CQTF dump file.
 *
 *--------------------------------------------------------------------*/

func main() {
	var (
		sampleRate         = pflag.Float64P("sample-rate", "r", 44100, "Audio sample rate in Hz.")
		fmin               = pflag.Float64P("fmin", "f", 32.7, "Lowest analyzed frequency in Hz.")
		fmax               = pflag.Float64("fmax", 0, "Highest analyzed frequency in Hz.  0 means Nyquist.")
		binsPerOctave      = pflag.IntP("bins-per-octave", "b", 12, "CQT bins per octave.")
		hopLength          = pflag.IntP("hop-length", "o", 512, "Samples between successive analysis columns.")
		windowScale        = pflag.Float64("window-scale", cqtscope.DefaultWindowScale, "Kernel-length multiplier.")
		threshold          = pflag.Float64("threshold", cqtscope.DefaultThreshold, "Kernel coefficient amplitude floor.")
		blockSize          = pflag.IntP("block-size", "s", 2048, "Accumulator cell size in samples.")
		maxBlocks          = pflag.Int("max-blocks", 128, "Accumulator ring capacity in blocks.")
		analysisBufferSize = pflag.Int("analysis-buffer-size", 32768, "Contiguous window length dispatched to the transform, a multiple of --block-size.")
		tileWidth          = pflag.Int("tile-width", 1024, "Spectrogram tile width in columns, a power of two.")
		tileCount          = pflag.Int("tile-count", 8, "Spectrogram tile ring capacity.")
		inputPath          = pflag.StringP("input", "i", "", "Path to raw little-endian float32 mono PCM, or '-' for stdin.  Ignored if --selftest is set.")
		selftest           = pflag.Bool("selftest", false, "Analyze a synthesized sine wave instead of reading --input.")
		selftestFreq       = pflag.Float64("selftest-freq", 440, "Sine-wave frequency in Hz for --selftest.")
		selftestSeconds    = pflag.Float64("selftest-seconds", 2, "Sine-wave duration in seconds for --selftest.")
		dumpPath           = pflag.StringP("dump", "d", "", "Write a CQTF binary dump of the final magnitude grid to this path.  Empty disables dumping.")
		configPath         = pflag.StringP("config", "c", "", "Load EngineConfig from a YAML file instead of the flags above.  See the yaml tags in src/config.go for the schema.")
		verbose            = pflag.BoolP("verbose", "v", false, "Enable debug logging.")
		showVersion        = pflag.Bool("version", false, "Print version and exit.")
	)
	pflag.Parse()

	if *showVersion {
		cqtscope.PrintVersion()
		return
	}

	logger := log.New(os.Stderr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	var cfg cqtscope.EngineConfig
	if *configPath != "" {
		var err error
		cfg, err = cqtscope.LoadEngineConfigFile(*configPath)
		if err != nil {
			logger.Fatal("loading config", "path", *configPath, "err", err)
		}
		logger.Debug("loaded config file", "path", *configPath)
	} else {
		cfg = cqtscope.EngineConfig{
			CQT: cqtscope.CQTConfig{
				SampleRate:    *sampleRate,
				Fmin:          *fmin,
				Fmax:          *fmax,
				BinsPerOctave: *binsPerOctave,
				HopLength:     *hopLength,
				WindowScale:   *windowScale,
				Threshold:     *threshold,
			},
			BlockSize:          *blockSize,
			MaxBlocks:          *maxBlocks,
			AnalysisBufferSize: *analysisBufferSize,
			Tile: cqtscope.TileConfig{
				TileWidth: *tileWidth,
				TileCount: *tileCount,
			},
		}
	}

	driver, err := cqtscope.NewDriver(cfg, logger)
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	if err := run(driver, logger, *selftest, *selftestFreq, *selftestSeconds, *inputPath); err != nil {
		logger.Fatal("run failed", "err", err)
	}

	logger.Info("analysis complete",
		"columns", driver.LogicalColumnCount(),
		"overruns", driver.Accumulator().OverrunCount())

	if *dumpPath != "" {
		if err := writeDump(driver, *dumpPath); err != nil {
			logger.Fatal("dump failed", "err", err)
		}
		logger.Info("wrote dump", "path", *dumpPath)
	}
}

// run feeds audio into driver either from a synthesized sine wave or
// from inputPath, chunked to keep memory bounded regardless of input
// size.
func run(driver *cqtscope.Driver, logger *log.Logger, selftest bool, freq, seconds float64, inputPath string) error {
	if selftest {
		sampleRate := driver.KernelBank().Config().SampleRate
		samples := cqtscope.GenerateSineWave(freq, sampleRate, 0.8, int(seconds*sampleRate))
		return driver.PushSamples(samples)
	}

	if inputPath == "" {
		return fmt.Errorf("one of --input or --selftest is required")
	}

	r, closeFn, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	const chunkSamples = 4096
	raw := make([]byte, chunkSamples*4)
	samples := make([]float32, chunkSamples)

	for {
		n, err := io.ReadFull(r, raw)
		if n > 0 {
			full := n / 4
			for i := 0; i < full; i++ {
				bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
				samples[i] = math.Float32frombits(bits)
			}
			if pushErr := driver.PushSamples(samples[:full]); pushErr != nil {
				logger.Warn("dispatch failure, continuing", "err", pushErr)
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// writeDump dumps every currently live magnitude column, oldest to
// newest, as one CQTF file: width = number of live columns, height =
// num_bins, row-major by frame per spec section 6.
func writeDump(driver *cqtscope.Driver, path string) error {
	mags := driver.Magnitudes()
	numBins := mags.NumBins()

	total := driver.LogicalColumnCount()
	width := int(total)
	capacity := driver.TileRing().TileWidth() * driver.TileRing().TileCount()
	if width > capacity {
		width = capacity
	}

	data := make([]float32, width*numBins)
	start := total - uint64(width)
	for i := 0; i < width; i++ {
		col := mags.Column(start + uint64(i))
		copy(data[i*numBins:(i+1)*numBins], col)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return cqtscope.WriteMagnitudeDump(f, data, width, numBins)
}
