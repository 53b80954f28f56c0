package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of a pricing override file:
//
//	tiers:
//	  - match: opus
//	    input: 15.0
//	    output: 75.0
//	  - match: ""        # fallback tier
//	    input: 3.0
//	    output: 15.0
type fileConfig struct {
	Tiers []Tier `yaml:"tiers"`
}

// LoadTable reads a pricing table from a YAML file. An empty path returns the
// built-in table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return NewDefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file %s: %w", path, err)
	}
	if len(cfg.Tiers) == 0 {
		return nil, fmt.Errorf("pricing file %s defines no tiers", path)
	}

	return NewTable(cfg.Tiers), nil
}
