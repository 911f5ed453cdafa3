// Package assetseed loads the initial Asset Registry contents from a
// YAML file at startup, the way the teacher's strategy config loader
// reads declarative YAML into typed Go structs.
package assetseed

import (
	"fmt"
	"os"

	"github.com/Overmuse/acticks/internal/asset"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// entry is the on-disk shape of one seeded asset.
type entry struct {
	Symbol       string `yaml:"symbol"`
	Venue        string `yaml:"venue"`
	Tradable     bool   `yaml:"tradable"`
	Marginable   bool   `yaml:"marginable"`
	Shortable    bool   `yaml:"shortable"`
	EasyToBorrow bool   `yaml:"easy_to_borrow"`
}

type document struct {
	Assets []entry `yaml:"assets"`
}

// Load reads a YAML asset seed file and builds a Registry. Every entry
// is stamped with a fresh id and class us_equity (spec §3: the only
// asset class in scope) and status active.
func Load(path string) (*asset.Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assetseed: read %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("assetseed: parse %s: %w", path, err)
	}

	assets := make([]asset.Asset, 0, len(doc.Assets))
	for _, e := range doc.Assets {
		if e.Symbol == "" {
			return nil, fmt.Errorf("assetseed: entry with empty symbol in %s", path)
		}
		assets = append(assets, asset.Asset{
			ID:           uuid.New(),
			Symbol:       e.Symbol,
			Class:        asset.ClassUSEquity,
			Venue:        asset.Venue(e.Venue),
			Status:       asset.StatusActive,
			Tradable:     e.Tradable,
			Marginable:   e.Marginable,
			Shortable:    e.Shortable,
			EasyToBorrow: e.EasyToBorrow,
		})
	}

	return asset.NewRegistry(assets), nil
}
