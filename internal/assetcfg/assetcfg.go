// Package assetcfg loads per-asset instrument metadata from YAML, the same
// way the teacher's internal/strategy/config_loader.go loads strategies.yaml
// (gopkg.in/yaml.v3, a flat file-to-struct unmarshal, no DB sync since this
// engine is stateless across restarts).
package assetcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Asset is one entry of instrument metadata, immutable after load.
type Asset struct {
	Symbol        string `yaml:"symbol"`
	ProductID     int    `yaml:"product_id"`
	ProductSymbol string `yaml:"product_symbol"`
	TickSize      float64 `yaml:"tick_size"`
	LotSize       float64 `yaml:"lot_size"`
	PriceDecimals int    `yaml:"price_decimals"`
	SizeDecimals  int    `yaml:"size_decimals"`
}

// File is the top-level YAML document shape.
type File struct {
	Assets []Asset `yaml:"assets"`
}

// Load reads asset instrument metadata from a YAML file, keyed by symbol.
func Load(path string) (map[string]Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assetcfg: read %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("assetcfg: parse %s: %w", path, err)
	}

	out := make(map[string]Asset, len(file.Assets))
	for _, a := range file.Assets {
		if a.Symbol == "" {
			return nil, fmt.Errorf("assetcfg: asset entry missing symbol")
		}
		out[a.Symbol] = a
	}
	return out, nil
}
