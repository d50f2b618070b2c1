package catalog

import "github.com/shopspring/decimal"

const DefaultBrandKey = "dr-dent"

func tier(key, name, gmvRange string, fee int64, videos int, label string) TierDefinition {
	return TierDefinition{
		Key:      key,
		Name:     name,
		GMVRange: gmvRange,
		Fee:      decimal.NewFromInt(fee),
		Videos:   videos,
		Label:    label,
	}
}

// BuiltinBrands is the brand table the service ships with.
func BuiltinBrands() []BrandConfig {
	return []BrandConfig{
		{
			Key:         "dr-dent",
			DisplayName: "Dr Dent",
			BillingName: "Galactic Brands LTD",
			Address:     "19 Haines Place\nBewdley Street\nEvesham\nWR11 4AD\nGB",
			Email:       "billing@galacticbrands.com",
			Phone:       "+44 xxx xxx xxxx",
			Colors:      Colors{Primary: "#ef4444", Secondary: "#1e293b"},
			Tiers: []TierDefinition{
				tier("tier1", "1st Tier", "5-10k", 450, 15, "Tier 1"),
				tier("tier2", "2nd Tier", "£10k - £25k", 600, 15, "Tier 2"),
				tier("tier3", "3rd Tier", "£25k - £50k", 850, 10, "Tier 3"),
				tier("tier4", "4th Tier", "£50k+", 1000, 10, "Tier 4"),
				tier("tier0-1", "Entry Tier 1", "5-10k overall", 300, 20, "Entry Tier 1"),
				tier("tier0-2", "Entry Tier 2", "10k-20k overall", 300, 15, "Entry Tier 2"),
				tier("tier0-3", "Entry Tier 3", "20k+ overall", 400, 15, "Entry Tier 3"),
			},
			Rewards: RewardsStructure{
				BaseRate: decimal.RequireFromString("0.05"),
				Thresholds: []RewardThreshold{
					{Threshold: decimal.NewFromInt(1000), Bonus: decimal.RequireFromString("0.01")},
					{Threshold: decimal.NewFromInt(5000), Bonus: decimal.RequireFromString("0.015")},
				},
			},
		},
		{
			Key:         "future-brand",
			DisplayName: "Future Brand",
			BillingName: "Future Brand Ltd",
			Address:     "123 Future Street\nLondon\nE1 6AN\nGB",
			Email:       "billing@futurebrand.com",
			Colors:      Colors{Primary: "#3b82f6", Secondary: "#1f2937"},
			Tiers: []TierDefinition{
				tier("tier1", "Bronze", "<£5k", 300, 0, "Tier 1"),
				tier("tier2", "Silver", "£5k - £15k", 500, 0, "Tier 2"),
				tier("tier3", "Gold", "£15k - £30k", 750, 0, "Tier 3"),
				tier("tier4", "Platinum", "£30k+", 1200, 0, "Tier 4"),
			},
			Rewards: RewardsStructure{
				BaseRate: decimal.RequireFromString("0.06"),
				Thresholds: []RewardThreshold{
					{Threshold: decimal.NewFromInt(2000), Bonus: decimal.RequireFromString("0.02")},
				},
			},
		},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultBrandKey, BuiltinBrands()...)
	if err != nil {
		panic(err)
	}
	return c
}
