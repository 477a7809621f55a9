package cqtscope

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	CQTConfig is the immutable parameter record fixed at
 *		kernel-bank construction time, plus the quantities
 *		derived from it once and never recomputed.
 *
 *------------------------------------------------------------------*/

// CQTConfig holds the parameters of a Constant-Q Transform. It is
// validated and frozen by NewKernelBank; nothing here changes once
// the engine is built.
type CQTConfig struct {
	SampleRate    float64 `yaml:"sample_rate"`     // Hz, > 0.
	Fmin          float64 `yaml:"fmin"`            // Hz, > 0.
	Fmax          float64 `yaml:"fmax"`            // Hz, <= SampleRate/2. Zero means Nyquist.
	BinsPerOctave int     `yaml:"bins_per_octave"` // > 0. Typical 12, 24, 36.
	HopLength     int     `yaml:"hop_length"`      // samples between columns, > 0, fixed.
	WindowScale   float64 `yaml:"window_scale"`    // > 0, default 1.0.
	Threshold     float64 `yaml:"threshold"`       // amplitude floor for kernel coefficients, default ~0.0054 (-45dB).
}

// DefaultThreshold is -45dB expressed as a linear amplitude, the
// default kernel coefficient floor from spec section 3.
const DefaultThreshold = 0.0054

// DefaultWindowScale is the default kernel-length multiplier.
const DefaultWindowScale = 1.0

// WithDefaults returns a copy of c with zero-valued optional fields
// filled in: Fmax defaults to Nyquist, WindowScale to 1.0, Threshold
// to DefaultThreshold.
func (c CQTConfig) WithDefaults() CQTConfig {
	if c.Fmax == 0 {
		c.Fmax = c.SampleRate / 2
	}
	if c.WindowScale == 0 {
		c.WindowScale = DefaultWindowScale
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	return c
}

// Validate returns a *ConfigurationError describing the first invalid
// field found, or nil. It does not mutate c; callers normally call
// WithDefaults() first.
func (c CQTConfig) Validate() error {
	if c.SampleRate <= 0 {
		return &ConfigurationError{Field: "SampleRate", Reason: "must be positive"}
	}
	if c.Fmin <= 0 {
		return &ConfigurationError{Field: "Fmin", Reason: "must be positive"}
	}
	if c.Fmax > c.SampleRate/2 {
		return &ConfigurationError{Field: "Fmax", Reason: "must not exceed Nyquist (SampleRate/2)"}
	}
	if c.Fmax <= c.Fmin {
		return &ConfigurationError{Field: "Fmax", Reason: "must exceed Fmin"}
	}
	if c.BinsPerOctave <= 0 {
		return &ConfigurationError{Field: "BinsPerOctave", Reason: "must be positive"}
	}
	if c.HopLength <= 0 {
		return &ConfigurationError{Field: "HopLength", Reason: "must be positive"}
	}
	if c.WindowScale <= 0 {
		return &ConfigurationError{Field: "WindowScale", Reason: "must be positive"}
	}
	if c.Threshold < 0 {
		return &ConfigurationError{Field: "Threshold", Reason: "must not be negative"}
	}
	return nil
}

// Q returns the shared quality factor 1 / (2^(1/BinsPerOctave) - 1).
func (c CQTConfig) Q() float64 {
	return 1.0 / (math.Pow(2, 1.0/float64(c.BinsPerOctave)) - 1.0)
}

// NumBins returns ceil(BinsPerOctave * log2(Fmax/Fmin)).
func (c CQTConfig) NumBins() int {
	return int(math.Ceil(float64(c.BinsPerOctave) * math.Log2(c.Fmax/c.Fmin)))
}

// CenterFreq returns f_k = Fmin * 2^(k/BinsPerOctave).
func (c CQTConfig) CenterFreq(k int) float64 {
	return c.Fmin * math.Pow(2, float64(k)/float64(c.BinsPerOctave))
}

// KernelLength returns L_k = ceil(Q * SampleRate * WindowScale / f_k).
func (c CQTConfig) KernelLength(k int) int {
	fk := c.CenterFreq(k)
	return int(math.Ceil(c.Q() * c.SampleRate * c.WindowScale / fk))
}

/*------------------------------------------------------------------
 *
 * Purpose:	TileConfig and EngineConfig aggregate the remaining
 *		construction-time constants named in spec section 6:
 *		block_size, max_blocks, analysis_buffer_size,
 *		tile_width, tile_count. Everything the engine needs to
 *		allocate its rings lives in one of these two structs.
 *
 *------------------------------------------------------------------*/

// TileConfig describes the spectrogram tile ring's shape.
type TileConfig struct {
	TileWidth int `yaml:"tile_width"` // frames per tile, power of two, default 1024.
	TileCount int `yaml:"tile_count"` // ring capacity, >= 2.
}

// EngineConfig is the single parameter object passed to NewDriver.
type EngineConfig struct {
	CQT                CQTConfig  `yaml:"cqt"`
	BlockSize          int        `yaml:"block_size"`           // accumulator cell size, power of two, typical 2048 or 4096.
	MaxBlocks          int        `yaml:"max_blocks"`           // ring capacity, typical 64-256.
	AnalysisBufferSize int        `yaml:"analysis_buffer_size"` // contiguous window length passed to the executor, typical 32768 or 65536.
	Tile               TileConfig `yaml:"tile"`
}

// Validate checks every field of EngineConfig, including the nested
// CQTConfig.
func (e EngineConfig) Validate() error {
	if err := e.CQT.Validate(); err != nil {
		return err
	}
	if e.BlockSize <= 0 {
		return &ConfigurationError{Field: "BlockSize", Reason: "must be positive"}
	}
	if e.MaxBlocks <= 0 {
		return &ConfigurationError{Field: "MaxBlocks", Reason: "must be positive"}
	}
	if e.AnalysisBufferSize <= 0 {
		return &ConfigurationError{Field: "AnalysisBufferSize", Reason: "must be positive"}
	}
	if e.Tile.TileWidth <= 0 {
		return &ConfigurationError{Field: "Tile.TileWidth", Reason: "must be positive"}
	}
	if e.Tile.TileCount < 2 {
		return &ConfigurationError{Field: "Tile.TileCount", Reason: "must be at least 2"}
	}
	return nil
}

// NextPowerOfTwo returns the smallest power of two >= n (n >= 1).
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
