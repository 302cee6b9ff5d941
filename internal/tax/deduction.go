package tax

import (
	"fmt"
	"strings"

	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/shopspring/decimal"
)

var monthsPerYear = decimal.NewFromInt(12)

// Assess derives annual income, available savings, capped deductions,
// baseline tax and remaining RMF/SSF room from a profile.
// Each deduction is capped on its own before summing.
func (r *Rules) Assess(profile models.ClientProfile) models.TaxAssessment {
	p := profile.Normalize()

	totalIncome := p.MonthlyIncome.Mul(monthsPerYear)
	yearlyOutflow := p.MonthlyFixedExpenses.Add(p.MonthlyEmergencySavings).Mul(monthsPerYear)

	space := models.DeductionSpace{
		Standard: decimal.Min(r.StandardCap, totalIncome.Mul(r.StandardRate)),
		Personal: r.Personal,
		LifeAndHealth: decimal.Min(
			p.LifePremium.Add(decimal.Min(p.HealthSelfPremium, r.HealthSelfCap)),
			r.LifeAndHealthCap,
		),
		ParentsHealth:    decimal.Min(p.HealthParentsPremium, r.ParentsHealthCap),
		MortgageInterest: decimal.Min(p.MortgageInterest, r.MortgageInterestCap),
		RMFSpace:         models.NonNegative(r.RMF.Limit(totalIncome).Sub(p.RMFHoldings)),
		SSFSpace:         models.NonNegative(r.SSF.Limit(totalIncome).Sub(p.SSFHoldings)),
	}

	totalDeductions := space.Standard.
		Add(space.Personal).
		Add(space.LifeAndHealth).
		Add(space.ParentsHealth).
		Add(space.MortgageInterest)

	netIncome := models.NonNegative(totalIncome.Sub(totalDeductions))
	taxBefore := r.ComputeTax(netIncome)

	return models.TaxAssessment{
		TotalIncome:             totalIncome,
		AvailableSavingsPerYear: models.NonNegative(totalIncome.Sub(yearlyOutflow)),
		TotalDeductions:         totalDeductions,
		NetIncomeBeforeTaxPlan:  netIncome,
		TaxPayableBefore:        taxBefore,
		TaxPayableAfter:         taxBefore,
		DeductionSpace:          space,
	}
}

// BoundPlan returns a copy of the tax plan in which RMF and SSF purchases
// never exceed the remaining room for that product. Purchases of the same
// product across several recommendations share one room. Other products
// pass through unchanged. Negative amounts become zero.
func BoundPlan(plan *models.TaxPlan, space models.DeductionSpace) (*models.TaxPlan, []models.Diagnostic) {
	if plan == nil {
		return nil, nil
	}

	bounded := *plan
	bounded.Recommendations = make([]models.TaxRecommendation, len(plan.Recommendations))

	room := map[string]decimal.Decimal{
		"RMF": space.RMFSpace,
		"SSF": space.SSFSpace,
	}

	var diags []models.Diagnostic
	for i, rec := range plan.Recommendations {
		rec.AmountToBuy = models.NonNegative(rec.AmountToBuy)
		product := strings.ToUpper(strings.TrimSpace(rec.Product))
		if left, ok := room[product]; ok {
			if rec.AmountToBuy.GreaterThan(left) {
				diags = append(diags, models.Diagnostic{
					GoalIndex: -1,
					Message: fmt.Sprintf("%s purchase reduced from %s to remaining room %s",
						product, rec.AmountToBuy.StringFixed(2), left.StringFixed(2)),
				})
				rec.AmountToBuy = left
			}
			room[product] = left.Sub(rec.AmountToBuy)
		}
		bounded.Recommendations[i] = rec
	}

	return &bounded, diags
}

// TaxAfterPurchases is the baseline tax recomputed with the plan's RMF and
// SSF purchases deducted from net income. The plan must already be bounded.
func (r *Rules) TaxAfterPurchases(assessment models.TaxAssessment, plan *models.TaxPlan) decimal.Decimal {
	if plan == nil {
		return assessment.TaxPayableBefore
	}

	deductible := decimal.Zero
	for _, rec := range plan.Recommendations {
		switch strings.ToUpper(strings.TrimSpace(rec.Product)) {
		case "RMF", "SSF":
			deductible = deductible.Add(rec.AmountToBuy)
		}
	}

	return r.ComputeTax(models.NonNegative(assessment.NetIncomeBeforeTaxPlan.Sub(deductible)))
}
