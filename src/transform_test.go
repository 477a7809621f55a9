package cqtscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// T5 (Time continuity): back-to-back analysis buffers must produce
// contiguous logical column indices with no gap or overlap.
func Test_Driver_timeContinuityAcrossBuffers(t *testing.T) {
	cfg := EngineConfig{
		CQT: CQTConfig{
			SampleRate:    8000,
			Fmin:          200,
			Fmax:          3000,
			BinsPerOctave: 12,
			HopLength:     128,
		},
		BlockSize:          256,
		MaxBlocks:          256,
		AnalysisBufferSize: 2048,
		Tile:               TileConfig{TileWidth: 64, TileCount: 8},
	}

	d, err := NewDriver(cfg, nil)
	require.NoError(t, err)

	samples := GenerateSineWave(440, cfg.CQT.SampleRate, 0.5, cfg.AnalysisBufferSize*6)

	chunk := 333
	for len(samples) > 0 {
		n := chunk
		if n > len(samples) {
			n = len(samples)
		}
		require.NoError(t, d.PushSamples(samples[:n]))
		samples = samples[n:]
	}

	assert.Greater(t, d.TileRing().WritePosition(), uint64(0))

	// Six full buffers were dispatched; their columns must number
	// exactly six buffers' worth, and the tile ring must have absorbed
	// every one of them.
	framesPerBuffer := d.Executor().MaxFrames(cfg.AnalysisBufferSize)
	assert.Equal(t, uint64(6*framesPerBuffer), d.LogicalColumnCount())
	assert.Equal(t, d.LogicalColumnCount(), d.TileRing().WritePosition())
}

// T6 (Peak recovery, sine-wave): the argmax bin's center frequency is
// within one bin (1/bins_per_octave relative) of the test tone.
func Test_Executor_scenario1_sinePeakRecovery(t *testing.T) {
	cfg := CQTConfig{
		SampleRate:    44100,
		Fmin:          32.7,
		Fmax:          8000,
		BinsPerOctave: 12,
		HopLength:     512,
	}
	kb, err := NewKernelBank(cfg)
	require.NoError(t, err)
	assert.Equal(t, 96, kb.NumBins())

	exec := NewExecutor(kb)

	const freqTest = 440.0

	minSamples := 2 * kb.MaxKernelLength()
	audio := GenerateSineWave(freqTest, cfg.SampleRate, 1.0, minSamples+cfg.HopLength*4)

	m := exec.DispatchSerial(audio, 0, exec.MaxFrames(len(audio)))
	require.Greater(t, m.NumFrames, 0)

	sums := make([]float64, m.NumBins)
	for f := 0; f < m.NumFrames; f++ {
		row := m.Frame(f)
		for k := 0; k < m.NumBins; k++ {
			sums[k] += float64(row[k])
		}
	}

	best := 0
	for k := 1; k < len(sums); k++ {
		if sums[k] > sums[best] {
			best = k
		}
	}

	fk := kb.CenterFreq(best)
	relErr := abs(fk-freqTest) / freqTest
	assert.LessOrEqual(t, relErr, 1.0/float64(cfg.BinsPerOctave))
	assert.InDelta(t, freqTest, fk, 0.1*freqTest)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Scenario 2 (Frame-count formula): num_frames formula for
// audio_length=32768 falls in (30, 34).
func Test_Executor_scenario2_frameCountFormula(t *testing.T) {
	cfg := CQTConfig{
		SampleRate:    48000,
		Fmin:          32.7,
		Fmax:          16000,
		BinsPerOctave: 12,
		HopLength:     256,
	}
	kb, err := NewKernelBank(cfg)
	require.NoError(t, err)

	const audioLength = 32768
	exec := NewExecutor(kb)
	numFrames := exec.MaxFrames(audioLength)

	assert.Greater(t, numFrames, 30)
	assert.Less(t, numFrames, 34)
}

func Test_Executor_DispatchAndDispatchSerialAgree(t *testing.T) {
	cfg := CQTConfig{
		SampleRate:    22050,
		Fmin:          100,
		Fmax:          4000,
		BinsPerOctave: 12,
		HopLength:     256,
	}
	kb, err := NewKernelBank(cfg)
	require.NoError(t, err)
	exec := NewExecutor(kb)

	audio := GenerateSineWave(300, cfg.SampleRate, 0.7, kb.MaxKernelLength()+cfg.HopLength*10)

	serial := exec.DispatchSerial(audio, 0, exec.MaxFrames(len(audio)))
	parallel, err := exec.Dispatch(audio, 0, exec.MaxFrames(len(audio)))
	require.NoError(t, err)

	require.Equal(t, serial.NumFrames, parallel.NumFrames)
	require.Equal(t, serial.NumBins, parallel.NumBins)
	for i := range serial.Data {
		assert.InDelta(t, serial.Data[i], parallel.Data[i], 1e-9)
	}
}

func Test_Executor_insufficientSamplesYieldsZeroFrames(t *testing.T) {
	cfg := baseCQTConfig()
	kb, err := NewKernelBank(cfg)
	require.NoError(t, err)
	exec := NewExecutor(kb)

	audio := GenerateSilence(10)
	assert.Equal(t, 0, exec.MaxFrames(len(audio)))

	m, err := exec.Dispatch(audio, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, m.NumFrames)
}
