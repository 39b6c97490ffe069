package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tinyrange/fwcfg"
)

// platformConfig describes where the fw_cfg registers live on this
// machine. x86 machines use the fixed I/O ports; MMIO machines publish
// the window address in their device tree, so it varies by machine
// type and has to be supplied here.
type platformConfig struct {
	// Transport is "port" or "mmio".
	Transport string `yaml:"transport"`

	MMIO struct {
		Base uint64 `yaml:"base"`
	} `yaml:"mmio"`
}

func defaultConfig() platformConfig {
	var cfg platformConfig
	cfg.Transport = "port"
	cfg.MMIO.Base = fwcfg.DefaultMMIOBase
	return cfg
}

func loadConfig(path string) (platformConfig, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read platform config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse platform config: %w", err)
	}

	switch cfg.Transport {
	case "port", "mmio":
	default:
		return cfg, fmt.Errorf("platform config: unknown transport %q", cfg.Transport)
	}
	return cfg, nil
}
