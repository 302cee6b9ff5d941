// Package report renders stored plans as CSV and PDF documents.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/shopspring/decimal"
)

// Prices maps ticker to a live quote lookup, as returned by the quote client.
type Prices map[string]models.QuoteResult

func (p Prices) price(ticker string) string {
	if res, ok := p[ticker]; ok && res.Quote != nil {
		return res.Quote.Current.StringFixed(2)
	}
	return "N/A"
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// WriteCSV writes the plan as a sectioned CSV document.
func WriteCSV(w io.Writer, plan *models.Plan, prices Prices) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	rows := csvRows(plan, prices)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func csvRows(plan *models.Plan, prices Prices) [][]string {
	var rows [][]string
	add := func(cells ...string) { rows = append(rows, cells) }
	blank := func() { rows = append(rows, []string{""}) }

	add("Financial Plan for " + plan.Profile.Name)
	add("Plan ID", plan.ID)
	add("Created", plan.CreatedAt.Format("2006-01-02 15:04"))
	if plan.Advisory != nil {
		add("Persona", plan.Advisory.Persona)
		add("Risk Profile", plan.Advisory.RiskName)
	}
	if plan.AdvisoryError != "" {
		add("Advisory", plan.AdvisoryError)
	}
	blank()

	a := plan.Assessment
	add("Tax Assessment")
	add("Total Income", money(a.TotalIncome))
	add("Total Deductions", money(a.TotalDeductions))
	add("Net Income", money(a.NetIncomeBeforeTaxPlan))
	add("Tax Before", money(a.TaxPayableBefore))
	add("Tax After", money(a.TaxPayableAfter))
	add("RMF Room", money(a.DeductionSpace.RMFSpace))
	add("SSF Room", money(a.DeductionSpace.SSFSpace))
	blank()

	if tp := plan.TaxPlan; tp != nil {
		add("Tax Plan Analysis")
		add("Summary", tp.Summary)
		add("Est. Tax Before", money(tp.EstimatedTaxPayableBefore))
		add("Est. Tax After", money(tp.EstimatedTaxPayableAfter))
		add("Total Saved", money(tp.TotalTaxSaved))
		add("Tax Recommendations")
		add("Product", "Amount to Buy", "Est. Tax Saved")
		for _, rec := range tp.Recommendations {
			add(rec.Product, money(rec.AmountToBuy), money(rec.EstimatedTaxSaved))
		}
		blank()
	}

	al := plan.Allocation
	add("Savings Allocation")
	add("Monthly Savings", money(al.TotalMonthlySavings))
	add("Monthly Tax Purchases", money(al.MonthlyTaxPurchases))
	add("Pool for Goals", money(al.StartingPool))
	add("Goal Index", "Goal Name", "Recommended", "Actual", "Pool After", "Status")
	for _, s := range al.Allocations {
		add(strconv.Itoa(s.GoalIndex), s.GoalName, money(s.RecommendedSavings), money(s.ActualInvestAmount), money(s.RemainingPoolAfter), string(s.Status))
	}
	add("Remaining Pool", money(al.RemainingPool))
	blank()

	if plan.Advisory != nil && len(plan.Advisory.GoalFeasibility) > 0 {
		add("Goal Feasibility Analysis")
		add("Goal Name", "Probability (%)", "Required Savings", "Analysis", "Worst Case")
		for _, f := range plan.Advisory.GoalFeasibility {
			add(f.GoalName, f.ProbabilityOfSuccessPercent.String(), money(f.RequiredSavingsPerMonth), f.Analysis, f.WorstCaseScenario)
			if f.InvestmentPlan == nil || len(f.InvestmentPlan.Assets) == 0 {
				continue
			}
			add("Sub-Portfolio for this Goal")
			add("Asset Name", "Ticker", "Percentage (%)", "Live Price (USD)")
			for _, asset := range f.InvestmentPlan.Assets {
				add(asset.Name, asset.Ticker, asset.Percentage.String(), prices.price(asset.Ticker))
			}
			blank()
		}
	}

	if len(plan.Diagnostics) > 0 {
		add("Diagnostics")
		for _, d := range plan.Diagnostics {
			add(strconv.Itoa(d.GoalIndex), d.Message)
		}
	}

	return rows
}

// Tickers lists every ticker mentioned by the plan's investment plans.
func Tickers(plan *models.Plan) []string {
	if plan.Advisory == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, f := range plan.Advisory.GoalFeasibility {
		if f.InvestmentPlan == nil {
			continue
		}
		for _, a := range f.InvestmentPlan.Assets {
			if a.Ticker != "" && !seen[a.Ticker] {
				seen[a.Ticker] = true
				out = append(out, a.Ticker)
			}
		}
	}
	return out
}
