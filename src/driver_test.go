package cqtscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEngineConfig() EngineConfig {
	return EngineConfig{
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
}

func Test_NewDriver_rejectsNonMultipleAnalysisBufferSize(t *testing.T) {
	cfg := baseEngineConfig()
	cfg.AnalysisBufferSize = cfg.BlockSize + 1

	_, err := NewDriver(cfg, nil)
	require.Error(t, err)

	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "AnalysisBufferSize", cerr.Field)
}

func Test_NewDriver_rejectsInvalidCQTConfig(t *testing.T) {
	cfg := baseEngineConfig()
	cfg.CQT.Fmin = -1

	_, err := NewDriver(cfg, nil)
	require.Error(t, err)
}

func Test_Driver_pushSamplesProducesTileOutput(t *testing.T) {
	cfg := baseEngineConfig()
	d, err := NewDriver(cfg, nil)
	require.NoError(t, err)

	samples := GenerateSineWave(440, cfg.CQT.SampleRate, 0.5, cfg.AnalysisBufferSize*3)
	require.NoError(t, d.PushSamples(samples))

	assert.Greater(t, d.TileRing().WritePosition(), uint64(0))
	assert.Greater(t, d.Accumulator().TotalBlocksCompleted(), uint64(0))
}

func Test_Driver_reset(t *testing.T) {
	cfg := baseEngineConfig()
	d, err := NewDriver(cfg, nil)
	require.NoError(t, err)

	samples := GenerateSineWave(440, cfg.CQT.SampleRate, 0.5, cfg.AnalysisBufferSize*3)
	require.NoError(t, d.PushSamples(samples))
	require.Greater(t, d.TileRing().WritePosition(), uint64(0))

	d.Reset()

	assert.Equal(t, uint64(0), d.TileRing().WritePosition())
	assert.Equal(t, uint64(0), d.Accumulator().TotalBlocksCompleted())
}

func Test_Driver_insufficientSamplesProducesNoTileOutput(t *testing.T) {
	cfg := baseEngineConfig()
	d, err := NewDriver(cfg, nil)
	require.NoError(t, err)

	require.NoError(t, d.PushSamples(GenerateSilence(cfg.BlockSize)))
	assert.Equal(t, uint64(0), d.TileRing().WritePosition())
}
