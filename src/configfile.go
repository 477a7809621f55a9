package cqtscope

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Load an EngineConfig from a YAML file, grounded on the
 *		teacher's deviceid.go: open a caller-named file, read it
 *		whole, and gopkg.in/yaml.v3-unmarshal it, but into a
 *		typed struct rather than deviceid.go's map[string]interface{},
 *		since EngineConfig's shape is fixed and known at compile
 *		time.
 *
 *------------------------------------------------------------------*/

// LoadEngineConfigYAML reads r as YAML and decodes it into an
// EngineConfig, applying CQTConfig.WithDefaults() to the nested CQT
// section before returning. It does not call Validate; callers should
// validate the result (NewDriver does this already).
func LoadEngineConfigYAML(r io.Reader) (EngineConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("cqtscope: reading config: %w", err)
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, &ConfigurationError{
			Field:  "yaml",
			Reason: err.Error(),
		}
	}

	cfg.CQT = cfg.CQT.WithDefaults()
	return cfg, nil
}

// LoadEngineConfigFile opens path and decodes it as EngineConfig YAML,
// the on-disk counterpart to the `-config` flag of cmd/cqtscope.
func LoadEngineConfigFile(path string) (EngineConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("cqtscope: opening config %s: %w", path, err)
	}
	defer f.Close()

	return LoadEngineConfigYAML(f)
}
