package cqtscope

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Kernel Bank (spec section 4.3, component C3). Pure
 *		function of CQTConfig, computed once at construction:
 *		a dense [num_bins, max_kernel_length] array of
 *		Hamming-windowed complex exponentials, one row per
 *		geometrically spaced center frequency.
 *
 *		Window-shape handling follows the style of direwolf's
 *		dsp.go window() dispatcher, but the Hamming
 *		coefficients themselves (0.54/0.46) are the textbook
 *		values named by spec section 4.3, not direwolf's
 *		0.53836/0.46164 variant - see DESIGN.md.
 *
 *------------------------------------------------------------------*/

// KernelBank holds the precomputed CQT basis. It is immutable once
// constructed and may be read concurrently without locking (spec
// section 5).
type KernelBank struct {
	config          CQTConfig
	numBins         int
	maxKernelLength int
	kernelLengths   []int
	centerFreqs     []float64
	real            [][]float32 // [numBins][maxKernelLength]
	imag            [][]float32
}

// hamming returns the Hamming window weight at sample index n of an
// L-sample window (spec section 4.3 step 2). A single-sample window
// has no meaningful taper and is treated as unity.
func hamming(n, length int) float64 {
	if length <= 1 {
		return 1.0
	}
	return 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(length-1))
}

// NewKernelBank validates cfg, fills in its defaults, and computes
// the kernel bank. Invalid configurations (Fmin<=0, Fmax>Nyquist,
// BinsPerOctave<=0, HopLength<=0, ...) yield a *ConfigurationError and
// no kernels are produced.
func NewKernelBank(cfg CQTConfig) (*KernelBank, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	numBins := cfg.NumBins()
	lengths := make([]int, numBins)
	centerFreqs := make([]float64, numBins)
	maxLen := 0
	for k := 0; k < numBins; k++ {
		centerFreqs[k] = cfg.CenterFreq(k)
		l := cfg.KernelLength(k)
		lengths[k] = l
		if l > maxLen {
			maxLen = l
		}
	}

	real := make([][]float32, numBins)
	imag := make([][]float32, numBins)
	for k := 0; k < numBins; k++ {
		real[k] = make([]float32, maxLen)
		imag[k] = make([]float32, maxLen)

		fk := centerFreqs[k]
		l := lengths[k]

		var sumSq float64
		for n := 0; n < l; n++ {
			w := hamming(n, l)
			phase := -2 * math.Pi * fk * float64(n) / cfg.SampleRate
			re := w * math.Cos(phase)
			im := w * math.Sin(phase)

			if math.Abs(re) > cfg.Threshold || math.Abs(im) > cfg.Threshold {
				real[k][n] = float32(re)
				imag[k][n] = float32(im)
				sumSq += re*re + im*im
			}
		}

		if sumSq > 0 {
			norm := float32(math.Sqrt(sumSq))
			for n := 0; n < l; n++ {
				real[k][n] /= norm
				imag[k][n] /= norm
			}
		}
	}

	return &KernelBank{
		config:          cfg,
		numBins:         numBins,
		maxKernelLength: maxLen,
		kernelLengths:   lengths,
		centerFreqs:     centerFreqs,
		real:            real,
		imag:            imag,
	}, nil
}

// Config returns the (defaulted) CQTConfig the bank was built from.
func (kb *KernelBank) Config() CQTConfig { return kb.config }

// NumBins returns the number of CQT bins.
func (kb *KernelBank) NumBins() int { return kb.numBins }

// MaxKernelLength returns L_0, the longest kernel (always the lowest
// bin).
func (kb *KernelBank) MaxKernelLength() int { return kb.maxKernelLength }

// KernelLength returns L_k, the number of nonzero samples in bin k's
// basis function.
func (kb *KernelBank) KernelLength(k int) int { return kb.kernelLengths[k] }

// CenterFreq returns f_k, bin k's center frequency in Hz.
func (kb *KernelBank) CenterFreq(k int) float64 { return kb.centerFreqs[k] }

// RealRow and ImagRow return bin k's kernel coefficients, dense over
// [0, MaxKernelLength); entries at or beyond KernelLength(k) are
// exactly zero.
func (kb *KernelBank) RealRow(k int) []float32 { return kb.real[k] }
func (kb *KernelBank) ImagRow(k int) []float32 { return kb.imag[k] }
