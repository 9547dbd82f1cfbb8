package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type config struct {
	Definitions string
	DB          string
}

type fileConfig struct {
	Definitions string `toml:"definitions"`
	DB          string `toml:"db"`
}

// loadConfig overlays the config file at path onto defaults. Keys the
// file doesn't carry keep their default.
func loadConfig(path string, defaults config) (config, error) {
	cfg := defaults

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("definitions") {
		if v := strings.TrimSpace(raw.Definitions); v != "" {
			cfg.Definitions = v
		}
	}

	if meta.IsDefined("db") {
		// An explicitly empty db turns the game database off
		cfg.DB = strings.TrimSpace(raw.DB)
	}

	return cfg, nil
}
