package models

import "github.com/shopspring/decimal"

// ClientProfile holds the household inputs for one analysis run.
// Numeric fields that are absent from the request decode to zero.
type ClientProfile struct {
	Name string `json:"name"`
	Age  int    `json:"age"`

	MonthlyIncome           decimal.Decimal `json:"monthly_income"`
	MonthlyFixedExpenses    decimal.Decimal `json:"monthly_fixed_expenses"`
	MonthlyEmergencySavings decimal.Decimal `json:"monthly_emergency_savings"`

	RMFHoldings decimal.Decimal `json:"rmf_current"`
	SSFHoldings decimal.Decimal `json:"ssf_current"`

	LifePremium          decimal.Decimal `json:"insurance_life"`
	HealthSelfPremium    decimal.Decimal `json:"insurance_health_self"`
	HealthParentsPremium decimal.Decimal `json:"insurance_health_parents"`
	MortgageInterest     decimal.Decimal `json:"home_loan_interest"`

	// Risk questionnaire answers, passed through to the advisory model
	Experience         string `json:"experience,omitempty"`
	Knowledge          string `json:"knowledge,omitempty"`
	VolatilityReaction string `json:"volatility_reaction,omitempty"`
	GoalPriority       string `json:"goal_priority,omitempty"`
}

// Normalize returns a copy of the profile with every negative amount clamped to zero.
func (p ClientProfile) Normalize() ClientProfile {
	p.MonthlyIncome = NonNegative(p.MonthlyIncome)
	p.MonthlyFixedExpenses = NonNegative(p.MonthlyFixedExpenses)
	p.MonthlyEmergencySavings = NonNegative(p.MonthlyEmergencySavings)
	p.RMFHoldings = NonNegative(p.RMFHoldings)
	p.SSFHoldings = NonNegative(p.SSFHoldings)
	p.LifePremium = NonNegative(p.LifePremium)
	p.HealthSelfPremium = NonNegative(p.HealthSelfPremium)
	p.HealthParentsPremium = NonNegative(p.HealthParentsPremium)
	p.MortgageInterest = NonNegative(p.MortgageInterest)
	if p.Age < 0 {
		p.Age = 0
	}
	return p
}

// MonthlyDiscretionarySavings is income left after fixed expenses and the
// emergency-fund contribution, floored at zero.
func (p ClientProfile) MonthlyDiscretionarySavings() decimal.Decimal {
	return NonNegative(p.MonthlyIncome.Sub(p.MonthlyFixedExpenses).Sub(p.MonthlyEmergencySavings))
}

// NonNegative clamps d to zero when it is negative.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
