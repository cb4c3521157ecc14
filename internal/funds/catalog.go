// Package funds holds the fixed mutual fund catalog and the LLM-backed
// compatibility matcher.
package funds

// MutualFund describes one fund in the fixed catalog.
type MutualFund struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	KeyAttributes map[string]string `json:"key_attributes"`
}

// Catalog returns the fixed, in-memory fund catalog consumed read-only by
// the matching step.
func Catalog() []MutualFund {
	return []MutualFund{
		{
			Name:        "Global Equity Growth Fund",
			Description: "Active global equity strategy focusing on high-quality growth companies with strong market positions and sustainable competitive advantages. Designed for sophisticated investors seeking long-term capital appreciation.",
			KeyAttributes: map[string]string{
				"Investment Style": "Active management with quality growth focus",
				"Min Investment":   "$250,000",
				"Management Fee":   "0.75% annually",
				"Target Client":    "High-net-worth individuals and institutions",
				"AUM Range":        "$10B - $20B",
			},
		},
		{
			Name:        "Core Fixed Income Fund",
			Description: "Conservative fixed income strategy investing in investment-grade securities. Focuses on capital preservation while generating steady income through diversified bond portfolio.",
			KeyAttributes: map[string]string{
				"Investment Style": "Core fixed income with blend approach",
				"Min Investment":   "$100,000",
				"Management Fee":   "0.45% annually",
				"Target Client":    "Conservative investors seeking income",
				"AUM Range":        "$20B - $30B",
			},
		},
		{
			Name:        "ESG Leaders Fund",
			Description: "Sustainable equity strategy focusing on companies with strong environmental, social, and governance practices. Targets long-term growth through responsible investing.",
			KeyAttributes: map[string]string{
				"Investment Style": "Active ESG-focused management",
				"Min Investment":   "$500,000",
				"Management Fee":   "0.85% annually",
				"Target Client":    "Institutional investors with ESG mandate",
				"AUM Range":        "$5B - $10B",
			},
		},
		{
			Name:        "Multi-Asset Income Fund",
			Description: "Diversified multi-asset strategy focusing on income generation through various asset classes including equities, fixed income, and alternatives.",
			KeyAttributes: map[string]string{
				"Investment Style": "Multi-asset income focused",
				"Min Investment":   "$150,000",
				"Management Fee":   "0.65% annually",
				"Target Client":    "Income-seeking high-net-worth individuals",
				"AUM Range":        "$10B - $15B",
			},
		},
		{
			Name:        "Small Cap Value Fund",
			Description: "Active small-cap value strategy focusing on undervalued companies with strong fundamentals and potential catalysts for value realization.",
			KeyAttributes: map[string]string{
				"Investment Style": "Active small-cap value",
				"Min Investment":   "$200,000",
				"Management Fee":   "0.95% annually",
				"Target Client":    "Long-term investors comfortable with volatility",
				"AUM Range":        "$5B - $10B",
			},
		},
	}
}
