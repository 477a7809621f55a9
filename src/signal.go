package cqtscope

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Sine-wave synthesis for tests and the CLI's self-test
 *		mode, adapted from gen_tone.go's tone generator. Unlike
 *		the phase-accumulator/sine-table approach gen_tone_init
 *		and gen_tone_put_sample use to drive a modem in real
 *		time, this computes samples directly from math.Sin since
 *		nothing here runs against a hardware sample clock.
 *
 *------------------------------------------------------------------*/

// GenerateSineWave returns numSamples of a single tone at freqHz,
// sampled at sampleRate and scaled to amplitude (0..1]. Used by tests
// exercising the sine-peak property (a single bin should dominate the
// transform output) and by the CLI's -selftest mode.
func GenerateSineWave(freqHz, sampleRate, amplitude float64, numSamples int) []float32 {
	Assert(sampleRate > 0, "sampleRate must be positive")

	out := make([]float32, numSamples)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = float32(amplitude * math.Sin(step*float64(i)))
	}
	return out
}

// GenerateSilence returns numSamples of zero-valued audio, used to
// exercise the insufficient-samples and steady-state-silence cases.
func GenerateSilence(numSamples int) []float32 {
	return make([]float32, numSamples)
}
