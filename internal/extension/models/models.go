package models

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

var namePattern = regexp.MustCompile(`^[a-z0-9]{2,16}$`)

// Extension is an administratively managed top-level suffix such as "web3".
type Extension struct {
	Name        string                  `json:"name"`
	BasePrice   decimal.Decimal         `json:"base_price"`
	TierPricing map[int]decimal.Decimal `json:"tier_pricing,omitempty"`
	Enabled     bool                    `json:"enabled"`
	Description string                  `json:"description,omitempty"`

	TotalMinted  int64           `json:"total_minted"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// NewExtension validates and normalizes a catalog entry.
func NewExtension(name string, basePrice decimal.Decimal, tiers map[int]decimal.Decimal, enabled bool, description string) (*Extension, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !namePattern.MatchString(name) {
		return nil, dErrors.New(dErrors.CodeValidation, "extension name must be 2-16 lowercase alphanumeric characters")
	}
	if basePrice.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "base price must not be negative")
	}
	for length, mult := range tiers {
		if length < 1 {
			return nil, dErrors.New(dErrors.CodeValidation, "tier length must be positive")
		}
		if !mult.IsPositive() {
			return nil, dErrors.New(dErrors.CodeValidation, "tier multiplier must be positive")
		}
	}
	return &Extension{
		Name:         name,
		BasePrice:    basePrice,
		TierPricing:  tiers,
		Enabled:      enabled,
		Description:  strings.TrimSpace(description),
		TotalRevenue: decimal.Zero,
	}, nil
}

// Quote prices a registration: base price times the tier multiplier for the
// label length. Lengths without a tier pay the base price.
func (e *Extension) Quote(name domain.Name) decimal.Decimal {
	if mult, ok := e.TierPricing[len(name.Label())]; ok {
		return e.BasePrice.Mul(mult)
	}
	return e.BasePrice
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (e *Extension) Clone() *Extension {
	c := *e
	if e.TierPricing != nil {
		c.TierPricing = make(map[int]decimal.Decimal, len(e.TierPricing))
		for k, v := range e.TierPricing {
			c.TierPricing[k] = v
		}
	}
	return &c
}
