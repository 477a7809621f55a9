package cqtscope

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfigYAML = `
cqt:
  sample_rate: 44100
  fmin: 32.7
  bins_per_octave: 12
  hop_length: 512
block_size: 2048
max_blocks: 64
analysis_buffer_size: 16384
tile:
  tile_width: 512
  tile_count: 4
`

func Test_LoadEngineConfigYAML_populatesFieldsAndDefaults(t *testing.T) {
	cfg, err := LoadEngineConfigYAML(strings.NewReader(sampleConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 44100.0, cfg.CQT.SampleRate)
	assert.Equal(t, 32.7, cfg.CQT.Fmin)
	assert.Equal(t, 12, cfg.CQT.BinsPerOctave)
	assert.Equal(t, 512, cfg.CQT.HopLength)
	assert.Equal(t, 2048, cfg.BlockSize)
	assert.Equal(t, 64, cfg.MaxBlocks)
	assert.Equal(t, 16384, cfg.AnalysisBufferSize)
	assert.Equal(t, 512, cfg.Tile.TileWidth)
	assert.Equal(t, 4, cfg.Tile.TileCount)

	// Fmax/WindowScale/Threshold are left blank in the YAML, so
	// WithDefaults must fill them in the same way the pflag-built path does.
	assert.Equal(t, cfg.CQT.SampleRate/2, cfg.CQT.Fmax)
	assert.Equal(t, DefaultWindowScale, cfg.CQT.WindowScale)
	assert.Equal(t, DefaultThreshold, cfg.CQT.Threshold)

	require.NoError(t, cfg.Validate())
}

func Test_LoadEngineConfigYAML_rejectsMalformedYAML(t *testing.T) {
	_, err := LoadEngineConfigYAML(strings.NewReader("cqt: [this is not a mapping"))
	require.Error(t, err)

	var configErr *ConfigurationError
	assert.ErrorAs(t, err, &configErr)
}

func Test_LoadEngineConfigFile_missingPath(t *testing.T) {
	_, err := LoadEngineConfigFile("/nonexistent/cqtscope-config.yaml")
	require.Error(t, err)
}
