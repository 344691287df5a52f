package store

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"registrar/internal/extension/models"
)

type seedFile struct {
	Extensions []seedExtension `yaml:"extensions"`
}

type seedExtension struct {
	Name        string         `yaml:"name"`
	BasePrice   string         `yaml:"base_price"`
	TierPricing map[int]string `yaml:"tier_pricing"`
	Enabled     *bool          `yaml:"enabled"`
	Description string         `yaml:"description"`
}

// defaultTiers charges more for short labels.
func defaultTiers() map[int]decimal.Decimal {
	return map[int]decimal.Decimal{
		1: decimal.NewFromInt(10),
		2: decimal.NewFromInt(5),
		3: decimal.NewFromInt(2),
	}
}

// Defaults returns the built-in catalog.
func Defaults() []*models.Extension {
	defs := []struct {
		name, price, description string
	}{
		{"web3", "0.1", "General purpose Web3 identity"},
		{"dao", "0.15", "Decentralized autonomous organizations"},
		{"defi", "0.12", "Decentralized finance protocols"},
		{"nft", "0.2", "NFT collections and creators"},
		{"crypto", "0.25", "Crypto projects and traders"},
		{"meta", "0.3", "Metaverse spaces"},
	}
	out := make([]*models.Extension, 0, len(defs))
	for _, d := range defs {
		ext, err := models.NewExtension(d.name, decimal.RequireFromString(d.price), defaultTiers(), true, d.description)
		if err != nil {
			panic(err)
		}
		out = append(out, ext)
	}
	return out
}

// LoadSeed reads a YAML catalog such as:
//
//	extensions:
//	  - name: web3
//	    base_price: "0.1"
//	    tier_pricing: {1: "10", 2: "5"}
//	    description: General purpose Web3 identity
func LoadSeed(path string) ([]*models.Extension, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read extension seed: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes a YAML catalog. Extensions default to enabled.
func ParseSeed(raw []byte) ([]*models.Extension, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse extension seed: %w", err)
	}
	out := make([]*models.Extension, 0, len(f.Extensions))
	for _, e := range f.Extensions {
		price, err := decimal.NewFromString(e.BasePrice)
		if err != nil {
			return nil, fmt.Errorf("extension %s: invalid base_price %q: %w", e.Name, e.BasePrice, err)
		}
		var tiers map[int]decimal.Decimal
		if len(e.TierPricing) > 0 {
			tiers = make(map[int]decimal.Decimal, len(e.TierPricing))
			for length, mult := range e.TierPricing {
				m, err := decimal.NewFromString(mult)
				if err != nil {
					return nil, fmt.Errorf("extension %s: invalid tier %d multiplier %q: %w", e.Name, length, mult, err)
				}
				tiers[length] = m
			}
		}
		enabled := e.Enabled == nil || *e.Enabled
		ext, err := models.NewExtension(e.Name, price, tiers, enabled, e.Description)
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", e.Name, err)
		}
		out = append(out, ext)
	}
	return out, nil
}
