// Package allocation distributes monthly discretionary savings across
// tax-product purchases and an ordered goal list, first come first served.
package allocation

import (
	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/shopspring/decimal"
)

var monthsPerYear = decimal.NewFromInt(12)

// Request is one goal's claim on the savings pool.
type Request struct {
	GoalIndex   int
	GoalName    string
	Recommended decimal.Decimal
	// NoData marks a goal the advisory model returned nothing for.
	NoData bool
}

// MonthlyEquivalent converts an annual amount to a monthly one, rounded up
// to the satang so the pool derived from it is never overstated.
func MonthlyEquivalent(annual decimal.Decimal) decimal.Decimal {
	return models.NonNegative(annual).Div(monthsPerYear).RoundCeil(2)
}

// Allocate runs the savings waterfall. Tax-product purchases are funded
// first, then each goal in submission order takes its full request if the
// pool covers it, otherwise whatever is left. Goals are never revisited.
func Allocate(totalMonthlySavings, annualTaxPurchases decimal.Decimal, requests []Request) models.AllocationResult {
	total := models.NonNegative(totalMonthlySavings)
	monthlyTax := MonthlyEquivalent(annualTaxPurchases)
	pool := models.NonNegative(total.Sub(monthlyTax))

	result := models.AllocationResult{
		TotalMonthlySavings: total,
		MonthlyTaxPurchases: monthlyTax,
		StartingPool:        pool,
		TotalAllocated:      decimal.Zero,
		Allocations:         make([]models.SavingsAllocation, 0, len(requests)),
	}

	for _, req := range requests {
		recommended := models.NonNegative(req.Recommended)
		actual := decimal.Zero

		switch {
		case req.NoData || recommended.IsZero():
			// nothing requested, pool untouched
		case pool.GreaterThanOrEqual(recommended):
			actual = recommended
			pool = pool.Sub(recommended)
		case pool.IsPositive():
			actual = pool
			pool = decimal.Zero
		}

		result.TotalAllocated = result.TotalAllocated.Add(actual)
		result.Allocations = append(result.Allocations, models.SavingsAllocation{
			GoalIndex:          req.GoalIndex,
			GoalName:           req.GoalName,
			RecommendedSavings: recommended,
			ActualInvestAmount: actual,
			RemainingPoolAfter: pool,
			Status:             status(req.NoData, recommended, actual),
		})
	}

	result.RemainingPool = pool
	return result
}

// status reports a zero request as unfunded: nothing was invested for it.
func status(noData bool, recommended, actual decimal.Decimal) models.AllocationStatus {
	switch {
	case noData:
		return models.StatusNoData
	case recommended.IsPositive() && actual.Equal(recommended):
		return models.StatusFunded
	case actual.IsPositive():
		return models.StatusPartial
	default:
		return models.StatusUnfunded
	}
}
