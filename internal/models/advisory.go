package models

import "github.com/shopspring/decimal"

// TaxRecommendation is one suggested purchase of a tax-advantaged product.
// Amounts are annual.
type TaxRecommendation struct {
	Product           string          `json:"product"`
	AmountToBuy       decimal.Decimal `json:"amount_to_buy"`
	EstimatedTaxSaved decimal.Decimal `json:"estimated_tax_saved"`
	Reason            string          `json:"reason,omitempty"`
}

// TaxPlan is the advisory model's tax-saving plan.
type TaxPlan struct {
	EstimatedNetIncome        decimal.Decimal     `json:"estimated_net_income"`
	EstimatedTaxPayableBefore decimal.Decimal     `json:"estimated_tax_payable_before"`
	EstimatedTaxPayableAfter  decimal.Decimal     `json:"estimated_tax_payable_after"`
	TotalTaxSaved             decimal.Decimal     `json:"total_tax_saved"`
	Summary                   string              `json:"summary,omitempty"`
	Recommendations           []TaxRecommendation `json:"recommendations"`
}

// AnnualPurchases sums the amount to buy across all recommendations.
func (t *TaxPlan) AnnualPurchases() decimal.Decimal {
	total := decimal.Zero
	if t == nil {
		return total
	}
	for _, rec := range t.Recommendations {
		total = total.Add(NonNegative(rec.AmountToBuy))
	}
	return total
}

// InsuranceRecommendation is a suggested insurance product.
type InsuranceRecommendation struct {
	Name                    string          `json:"name"`
	Reason                  string          `json:"reason"`
	EstimatedPremiumPerYear decimal.Decimal `json:"estimated_premium_per_year"`
	EstimatedCoverage       decimal.Decimal `json:"estimated_coverage"`
}

// Advisory is the full response of the advisory model for one analysis.
type Advisory struct {
	Persona         string                    `json:"persona"`
	RiskLevel       string                    `json:"risk_level"`
	RiskName        string                    `json:"risk_name"`
	RiskDesc        string                    `json:"risk_desc"`
	InsurancePlan   []InsuranceRecommendation `json:"insurance_plan"`
	Disclaimer      string                    `json:"disclaimer"`
	TaxPlan         *TaxPlan                  `json:"tax_plan"`
	GoalFeasibility []GoalFeasibility         `json:"goal_feasibility"`
}

// AdvisoryRequest carries the deterministic figures and client inputs the
// advisory model works from.
type AdvisoryRequest struct {
	Profile          ClientProfile
	Goals            []Goal
	Assessment       TaxAssessment
	MonthlySavings   decimal.Decimal
	SuggestedTickers []string
}

// GoalIdentity names the goal a resimulation is about.
type GoalIdentity struct {
	Index        int             `json:"index"`
	Name         string          `json:"name"`
	HorizonYears int             `json:"horizon"`
	TargetAmount decimal.Decimal `json:"amount"`
}

// ResimulationRequest asks for a single-goal feasibility with a new
// monthly savings figure. Nothing else about the goal changes.
type ResimulationRequest struct {
	Goal              GoalIdentity    `json:"goal"`
	NewMonthlySavings decimal.Decimal `json:"new_monthly_savings"`
	ClientProfile     ClientProfile   `json:"client_profile"`
	InvestmentPlan    InvestmentPlan  `json:"investment_plan"`
}

// ResimulationResult is the advisory model's answer to a resimulation.
type ResimulationResult struct {
	GoalIndex                   int             `json:"goal_index"`
	NewMonthlySavings           decimal.Decimal `json:"new_monthly_savings"`
	ProbabilityOfSuccessPercent decimal.Decimal `json:"probability_of_success_percent"`
	Analysis                    string          `json:"analysis"`
}

// ChatTurn is one message of a plan conversation.
type ChatTurn struct {
	Role string `json:"role"` // user | model
	Text string `json:"text"`
}

// ChatRequest is a follow-up question about an existing plan.
type ChatRequest struct {
	Plan    *Plan
	History []ChatTurn
	Message string
}
