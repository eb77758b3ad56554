package config

import (
	"github.com/pelletier/go-toml/v2"
)

// parseTOML decodes TOML over the defaults; keys absent from the file keep
// their default values
func parseTOML(content []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
