package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeductionSpace holds the capped deductions and the remaining
// contribution room per tax-advantaged product.
type DeductionSpace struct {
	Standard         decimal.Decimal `json:"standard"`
	Personal         decimal.Decimal `json:"personal"`
	LifeAndHealth    decimal.Decimal `json:"life_and_health"`
	ParentsHealth    decimal.Decimal `json:"parents_health"`
	MortgageInterest decimal.Decimal `json:"mortgage_interest"`
	RMFSpace         decimal.Decimal `json:"rmf_space"`
	SSFSpace         decimal.Decimal `json:"ssf_space"`
}

// TaxAssessment is the deterministic tax picture for a profile.
type TaxAssessment struct {
	TotalIncome             decimal.Decimal `json:"total_income"`
	AvailableSavingsPerYear decimal.Decimal `json:"available_savings_per_year"`
	TotalDeductions         decimal.Decimal `json:"total_deductions"`
	NetIncomeBeforeTaxPlan  decimal.Decimal `json:"net_income_before_tax_plan"`
	TaxPayableBefore        decimal.Decimal `json:"tax_payable_before"`
	TaxPayableAfter         decimal.Decimal `json:"tax_payable_after"`
	DeductionSpace          DeductionSpace  `json:"deduction_space"`
}

// AllocationStatus describes how much of a goal's request was funded.
type AllocationStatus string

const (
	StatusFunded   AllocationStatus = "funded"
	StatusPartial  AllocationStatus = "partial"
	StatusUnfunded AllocationStatus = "unfunded"
	StatusNoData   AllocationStatus = "no_data"
)

// SavingsAllocation is the waterfall outcome for one goal.
type SavingsAllocation struct {
	GoalIndex          int              `json:"goal_index"`
	GoalName           string           `json:"goal_name"`
	RecommendedSavings decimal.Decimal  `json:"recommended_savings"`
	ActualInvestAmount decimal.Decimal  `json:"actual_invest_amount"`
	RemainingPoolAfter decimal.Decimal  `json:"remaining_pool_after"`
	Status             AllocationStatus `json:"status"`
}

// AllocationResult is the full waterfall run over a goal list.
type AllocationResult struct {
	TotalMonthlySavings decimal.Decimal     `json:"total_monthly_savings"`
	MonthlyTaxPurchases decimal.Decimal     `json:"monthly_tax_purchases"`
	StartingPool        decimal.Decimal     `json:"starting_pool"`
	TotalAllocated      decimal.Decimal     `json:"total_allocated"`
	RemainingPool       decimal.Decimal     `json:"remaining_pool"`
	Allocations         []SavingsAllocation `json:"allocations"`
}

// Diagnostic records a non-fatal problem found while building a plan.
type Diagnostic struct {
	GoalIndex int    `json:"goal_index"` // -1 when not tied to a goal
	Message   string `json:"message"`
}

// Plan is the immutable record of one analysis submission.
type Plan struct {
	ID            string           `json:"id"`
	UserID        int64            `json:"user_id"`
	CreatedAt     time.Time        `json:"created_at"`
	ExpiresAt     time.Time        `json:"expires_at"`
	Profile       ClientProfile    `json:"profile"`
	Goals         []Goal           `json:"goals"`
	Assessment    TaxAssessment    `json:"assessment"`
	Advisory      *Advisory        `json:"advisory,omitempty"`
	TaxPlan       *TaxPlan         `json:"tax_plan,omitempty"`
	Allocation    AllocationResult `json:"allocation"`
	Diagnostics   []Diagnostic     `json:"diagnostics,omitempty"`
	AdvisoryError string           `json:"advisory_error,omitempty"`
}

// Feasibility returns the advisory entry for a goal index, if there is one.
func (p *Plan) Feasibility(index int) (GoalFeasibility, bool) {
	if p.Advisory == nil || index < 0 || index >= len(p.Advisory.GoalFeasibility) {
		return GoalFeasibility{}, false
	}
	return p.Advisory.GoalFeasibility[index], true
}

// Submission is the body of an analysis request.
type Submission struct {
	Profile ClientProfile `json:"profile"`
	Goals   []Goal        `json:"goals"`
}

// GoalRequest is one goal of a stateless allocation request.
type GoalRequest struct {
	GoalName                string          `json:"goal_name"`
	RequiredSavingsPerMonth decimal.Decimal `json:"required_savings_per_month"`
}

// AllocationInput is the body of a stateless allocation request.
type AllocationInput struct {
	TotalMonthlySavings decimal.Decimal `json:"total_monthly_savings"`
	AnnualTaxPurchases  decimal.Decimal `json:"annual_tax_purchases"`
	Goals               []GoalRequest   `json:"goals"`
}
