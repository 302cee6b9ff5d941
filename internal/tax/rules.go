package tax

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

type rulesFile struct {
	Brackets []struct {
		Lower float64 `yaml:"lower"`
		Rate  float64 `yaml:"rate"`
	} `yaml:"brackets"`
	Deductions struct {
		StandardRate        float64 `yaml:"standard_rate"`
		StandardCap         float64 `yaml:"standard_cap"`
		Personal            float64 `yaml:"personal"`
		HealthSelfCap       float64 `yaml:"health_self_cap"`
		LifeAndHealthCap    float64 `yaml:"life_and_health_cap"`
		ParentsHealthCap    float64 `yaml:"parents_health_cap"`
		MortgageInterestCap float64 `yaml:"mortgage_interest_cap"`
	} `yaml:"deductions"`
	Products struct {
		RMF productFile `yaml:"rmf"`
		SSF productFile `yaml:"ssf"`
	} `yaml:"products"`
}

type productFile struct {
	IncomeRate float64 `yaml:"income_rate"`
	Ceiling    float64 `yaml:"ceiling"`
}

// ProductLimit bounds yearly contributions to a tax-advantaged fund:
// the lower of IncomeRate × annual income and Ceiling.
type ProductLimit struct {
	IncomeRate decimal.Decimal
	Ceiling    decimal.Decimal
}

// Limit returns the contribution ceiling for a given annual income.
func (l ProductLimit) Limit(annualIncome decimal.Decimal) decimal.Decimal {
	return decimal.Min(annualIncome.Mul(l.IncomeRate), l.Ceiling)
}

// Rules is the full statutory rule set used by the calculators.
type Rules struct {
	Table *Table

	StandardRate        decimal.Decimal
	StandardCap         decimal.Decimal
	Personal            decimal.Decimal
	HealthSelfCap       decimal.Decimal
	LifeAndHealthCap    decimal.Decimal
	ParentsHealthCap    decimal.Decimal
	MortgageInterestCap decimal.Decimal

	RMF ProductLimit
	SSF ProductLimit
}

// DefaultRules returns the embedded rule set.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads a rule file, falling back to the embedded rules when path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tax rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes a YAML rule set.
func ParseRules(data []byte) (*Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse tax rules: %w", err)
	}

	brackets := make([]Bracket, 0, len(f.Brackets))
	for _, b := range f.Brackets {
		brackets = append(brackets, Bracket{
			Lower: decimal.NewFromFloat(b.Lower),
			Rate:  decimal.NewFromFloat(b.Rate),
		})
	}
	table, err := NewTable(brackets)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rules: %w", err)
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid tax rules: %w", err)
	}

	d := f.Deductions
	return &Rules{
		Table:               table,
		StandardRate:        decimal.NewFromFloat(d.StandardRate),
		StandardCap:         decimal.NewFromFloat(d.StandardCap),
		Personal:            decimal.NewFromFloat(d.Personal),
		HealthSelfCap:       decimal.NewFromFloat(d.HealthSelfCap),
		LifeAndHealthCap:    decimal.NewFromFloat(d.LifeAndHealthCap),
		ParentsHealthCap:    decimal.NewFromFloat(d.ParentsHealthCap),
		MortgageInterestCap: decimal.NewFromFloat(d.MortgageInterestCap),
		RMF: ProductLimit{
			IncomeRate: decimal.NewFromFloat(f.Products.RMF.IncomeRate),
			Ceiling:    decimal.NewFromFloat(f.Products.RMF.Ceiling),
		},
		SSF: ProductLimit{
			IncomeRate: decimal.NewFromFloat(f.Products.SSF.IncomeRate),
			Ceiling:    decimal.NewFromFloat(f.Products.SSF.Ceiling),
		},
	}, nil
}

// validate rejects rule sets whose core deductions or product limits are
// missing. A missing YAML key decodes to zero, which would silently raise
// every assessment.
func (f *rulesFile) validate() error {
	required := []struct {
		name  string
		value float64
	}{
		{"deductions.standard_rate", f.Deductions.StandardRate},
		{"deductions.standard_cap", f.Deductions.StandardCap},
		{"deductions.personal", f.Deductions.Personal},
		{"products.rmf.income_rate", f.Products.RMF.IncomeRate},
		{"products.rmf.ceiling", f.Products.RMF.Ceiling},
		{"products.ssf.income_rate", f.Products.SSF.IncomeRate},
		{"products.ssf.ceiling", f.Products.SSF.Ceiling},
	}
	for _, r := range required {
		if r.value <= 0 {
			return fmt.Errorf("%s must be positive", r.name)
		}
	}

	optional := []struct {
		name  string
		value float64
	}{
		{"deductions.health_self_cap", f.Deductions.HealthSelfCap},
		{"deductions.life_and_health_cap", f.Deductions.LifeAndHealthCap},
		{"deductions.parents_health_cap", f.Deductions.ParentsHealthCap},
		{"deductions.mortgage_interest_cap", f.Deductions.MortgageInterestCap},
	}
	for _, o := range optional {
		if o.value < 0 {
			return fmt.Errorf("%s must not be negative", o.name)
		}
	}
	if f.Deductions.StandardRate > 1 || f.Products.RMF.IncomeRate > 1 || f.Products.SSF.IncomeRate > 1 {
		return fmt.Errorf("rates must not exceed 1")
	}
	return nil
}

// ComputeTax applies the bracket table.
func (r *Rules) ComputeTax(netIncome decimal.Decimal) decimal.Decimal {
	return r.Table.ComputeTax(netIncome)
}
