package main

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-wgsl/common"
	"github.com/pelletier/go-toml/v2"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// config holds the settings read from the optional TOML file. Command line flags
// override any value set here.
type config struct {
	Format   string `toml:"format"`
	Workers  int    `toml:"workers"`
	Profile  bool   `toml:"profile"`
	Includes string `toml:"includes"`
}

// loadConfig decodes a TOML config file. An empty path returns the defaults.
func loadConfig(path string) (config, error) {
	var cfg config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	return cfg.normalize()
}

func (c config) normalize() (config, error) {
	c.Format = common.Coalesce(c.Format, formatYAML)
	if c.Format != formatYAML && c.Format != formatJSON {
		return c, fmt.Errorf("unknown output format %q", c.Format)
	}
	return c, nil
}
