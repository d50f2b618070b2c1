// Package catalog holds the read-only brand and retainer tier table.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TierDefinition is one flat-fee retainer band offered by a brand.
type TierDefinition struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	GMVRange string          `json:"gmvRange"`
	Fee      decimal.Decimal `json:"amount"`
	Videos   int             `json:"videos"`
	// Label is the option name the record store uses for this tier, e.g. "Tier 1".
	Label string `json:"label"`
}

type RewardThreshold struct {
	Threshold decimal.Decimal `json:"threshold"`
	Bonus     decimal.Decimal `json:"bonus"`
}

type RewardsStructure struct {
	BaseRate   decimal.Decimal   `json:"baseRate"`
	Thresholds []RewardThreshold `json:"thresholds,omitempty"`
}

type Colors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// BrandConfig identifies a billing entity and its tier table.
type BrandConfig struct {
	Key         string           `json:"key"`
	DisplayName string           `json:"displayName"`
	BillingName string           `json:"billingName"`
	Address     string           `json:"address"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone,omitempty"`
	Colors      Colors           `json:"colors"`
	Tiers       []TierDefinition `json:"tiers"`
	Rewards     RewardsStructure `json:"rewardsStructure"`
}

// Tier resolves a tier key against the brand's table.
func (b BrandConfig) Tier(key string) (TierDefinition, bool) {
	for _, t := range b.Tiers {
		if t.Key == key {
			return t, true
		}
	}
	return TierDefinition{}, false
}

// AddressLines splits the multi-line billing address, dropping blank lines.
func (b BrandConfig) AddressLines() []string {
	var lines []string
	for _, l := range strings.Split(b.Address, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Code is the upper-cased brand key used as the invoice number prefix.
func (b BrandConfig) Code() string {
	return strings.ToUpper(b.Key)
}

// Catalog is an immutable set of brands with a fixed default.
type Catalog struct {
	defaultKey string
	order      []string
	brands     map[string]BrandConfig
}

// New builds a catalog and validates it.
func New(defaultKey string, brands ...BrandConfig) (*Catalog, error) {
	c := &Catalog{
		defaultKey: defaultKey,
		brands:     make(map[string]BrandConfig, len(brands)),
	}
	for _, b := range brands {
		if _, dup := c.brands[b.Key]; dup {
			return nil, fmt.Errorf("duplicate brand key: %s", b.Key)
		}
		c.brands[b.Key] = b
		c.order = append(c.order, b.Key)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the invariants every catalog must hold.
func (c *Catalog) Validate() error {
	if len(c.brands) == 0 {
		return fmt.Errorf("catalog contains no brands")
	}
	if _, ok := c.brands[c.defaultKey]; !ok {
		return fmt.Errorf("default brand %q is not in the catalog", c.defaultKey)
	}

	for _, key := range c.order {
		b := c.brands[key]
		if b.Key == "" {
			return fmt.Errorf("brand missing required field: key")
		}
		if b.DisplayName == "" {
			return fmt.Errorf("brand %s missing required field: displayName", b.Key)
		}
		if b.BillingName == "" {
			return fmt.Errorf("brand %s missing required field: billingName", b.Key)
		}
		if len(b.Tiers) == 0 {
			return fmt.Errorf("brand %s has no tiers", b.Key)
		}

		seen := make(map[string]bool, len(b.Tiers))
		for _, t := range b.Tiers {
			if t.Key == "" {
				return fmt.Errorf("brand %s has a tier without a key", b.Key)
			}
			if seen[t.Key] {
				return fmt.Errorf("brand %s has duplicate tier key: %s", b.Key, t.Key)
			}
			seen[t.Key] = true

			if !t.Fee.IsPositive() {
				return fmt.Errorf("brand %s tier %s must have a positive amount", b.Key, t.Key)
			}
			if t.Name == "" {
				return fmt.Errorf("brand %s tier %s missing required field: name", b.Key, t.Key)
			}
		}
	}
	return nil
}

// Lookup returns the brand for key, falling back to the default brand when the
// key is empty or unknown.
func (c *Catalog) Lookup(key string) BrandConfig {
	if b, ok := c.brands[key]; ok {
		return b
	}
	return c.brands[c.defaultKey]
}

// Get returns the brand for key without falling back.
func (c *Catalog) Get(key string) (BrandConfig, bool) {
	b, ok := c.brands[key]
	return b, ok
}

// Brands returns every brand in declaration order.
func (c *Catalog) Brands() []BrandConfig {
	out := make([]BrandConfig, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.brands[key])
	}
	return out
}

func (c *Catalog) DefaultKey() string {
	return c.defaultKey
}
