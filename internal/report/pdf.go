package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

type pdfReport struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	plan   *models.Plan
	prices Prices
}

// WritePDF renders the plan as a PDF document.
func WritePDF(w io.Writer, plan *models.Plan, prices Prices) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	r := &pdfReport{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		plan:   plan,
		prices: prices,
	}

	r.pdf.SetMargins(marginLeft, marginTop, marginRight)
	r.pdf.SetAutoPageBreak(true, marginBottom)

	r.addSummaryPage()
	r.addAllocationPage()
	r.addFeasibilityPage()

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (r *pdfReport) addSummaryPage() {
	r.pdf.AddPage()

	r.pdf.SetFont("Arial", "B", 22)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 12, r.tr("Financial Plan for "+r.plan.Profile.Name), "", 1, "C", false, 0, "")
	r.pdf.SetFont("Arial", "I", 10)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Plan %s, generated %s", r.plan.ID, r.plan.CreatedAt.Format("2 January 2006")), "", 1, "C", false, 0, "")
	r.pdf.Ln(8)

	if adv := r.plan.Advisory; adv != nil {
		r.drawSectionHeader("Profile")
		r.drawKeyValue("Persona", adv.Persona)
		r.drawKeyValue("Risk profile", adv.RiskName)
		if adv.RiskDesc != "" {
			r.pdf.SetFont("Arial", "", 10)
			r.pdf.MultiCell(contentWidth, 5, r.tr(adv.RiskDesc), "", "L", false)
		}
		r.pdf.Ln(4)
	}
	if r.plan.AdvisoryError != "" {
		r.drawKeyValue("Advisory", "unavailable, deterministic figures only")
		r.pdf.Ln(4)
	}

	a := r.plan.Assessment
	r.drawSectionHeader("Tax Assessment")
	widths := []float64{110, 70}
	r.drawTableHeader([]string{"Item", "THB"}, widths)
	r.drawTableRow([]string{"Total income", money(a.TotalIncome)}, widths, false)
	r.drawTableRow([]string{"Total deductions", money(a.TotalDeductions)}, widths, false)
	r.drawTableRow([]string{"Net income", money(a.NetIncomeBeforeTaxPlan)}, widths, false)
	r.drawTableRow([]string{"Tax before plan", money(a.TaxPayableBefore)}, widths, true)
	r.drawTableRow([]string{"Tax after plan", money(a.TaxPayableAfter)}, widths, true)
	r.drawTableRow([]string{"RMF room", money(a.DeductionSpace.RMFSpace)}, widths, false)
	r.drawTableRow([]string{"SSF room", money(a.DeductionSpace.SSFSpace)}, widths, false)
	r.pdf.Ln(6)

	if tp := r.plan.TaxPlan; tp != nil && len(tp.Recommendations) > 0 {
		r.drawSectionHeader("Tax-Saving Purchases")
		widths := []float64{60, 60, 60}
		r.drawTableHeader([]string{"Product", "Amount to buy", "Est. tax saved"}, widths)
		for _, rec := range tp.Recommendations {
			r.drawTableRow([]string{r.tr(rec.Product), money(rec.AmountToBuy), money(rec.EstimatedTaxSaved)}, widths, false)
		}
		if tp.Summary != "" {
			r.pdf.Ln(2)
			r.pdf.SetFont("Arial", "", 10)
			r.pdf.MultiCell(contentWidth, 5, r.tr(tp.Summary), "", "L", false)
		}
	}
}

func (r *pdfReport) addAllocationPage() {
	r.pdf.AddPage()
	al := r.plan.Allocation

	r.drawSectionHeader("Monthly Savings Allocation")
	r.drawKeyValue("Monthly savings", money(al.TotalMonthlySavings))
	r.drawKeyValue("Tax purchases per month", money(al.MonthlyTaxPurchases))
	r.drawKeyValue("Pool for goals", money(al.StartingPool))
	r.pdf.Ln(4)

	widths := []float64{12, 58, 30, 30, 30, 20}
	r.drawTableHeader([]string{"#", "Goal", "Recommended", "Actual", "Pool after", "Status"}, widths)
	for _, s := range al.Allocations {
		r.drawTableRow([]string{
			strconv.Itoa(s.GoalIndex),
			r.tr(s.GoalName),
			money(s.RecommendedSavings),
			money(s.ActualInvestAmount),
			money(s.RemainingPoolAfter),
			string(s.Status),
		}, widths, false)
	}
	r.drawTableRow([]string{"", "Total", "", money(al.TotalAllocated), money(al.RemainingPool), ""}, widths, true)

	if len(r.plan.Diagnostics) > 0 {
		r.pdf.Ln(6)
		r.pdf.SetFont("Arial", "I", 9)
		r.pdf.SetTextColor(120, 120, 120)
		for _, d := range r.plan.Diagnostics {
			r.pdf.MultiCell(contentWidth, 4.5, r.tr(d.Message), "", "L", false)
		}
	}
}

func (r *pdfReport) addFeasibilityPage() {
	if r.plan.Advisory == nil || len(r.plan.Advisory.GoalFeasibility) == 0 {
		return
	}
	r.pdf.AddPage()
	r.drawSectionHeader("Goal Feasibility")

	for i, f := range r.plan.Advisory.GoalFeasibility {
		r.pdf.SetFont("Arial", "B", 11)
		r.pdf.SetTextColor(0, 51, 102)
		r.pdf.CellFormat(contentWidth, 7, r.tr(fmt.Sprintf("%d. %s (%s%% likely)", i, f.GoalName, f.ProbabilityOfSuccessPercent.String())), "", 1, "L", false, 0, "")

		r.pdf.SetFont("Arial", "", 10)
		r.pdf.SetTextColor(50, 50, 50)
		r.pdf.MultiCell(contentWidth, 5, r.tr(f.Analysis), "", "L", false)
		if f.WorstCaseScenario != "" {
			r.pdf.SetFont("Arial", "I", 9)
			r.pdf.MultiCell(contentWidth, 5, r.tr("Worst case: "+f.WorstCaseScenario), "", "L", false)
		}

		if f.InvestmentPlan != nil && len(f.InvestmentPlan.Assets) > 0 {
			r.pdf.Ln(2)
			widths := []float64{80, 30, 35, 35}
			r.drawTableHeader([]string{"Asset", "Ticker", "Weight (%)", "Price (USD)"}, widths)
			for _, asset := range f.InvestmentPlan.Assets {
				r.drawTableRow([]string{r.tr(asset.Name), asset.Ticker, asset.Percentage.String(), r.prices.price(asset.Ticker)}, widths, false)
			}
		}
		r.pdf.Ln(6)
	}

	if d := r.plan.Advisory.Disclaimer; d != "" {
		r.pdf.SetFont("Arial", "I", 9)
		r.pdf.SetTextColor(120, 120, 120)
		r.pdf.MultiCell(contentWidth, 4.5, r.tr(d), "", "C", false)
	}
}

func (r *pdfReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 16)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 10, title, "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(5)
}

func (r *pdfReport) drawKeyValue(key, value string) {
	r.pdf.SetFont("Arial", "B", 10)
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.CellFormat(60, 6, key, "", 0, "L", false, 0, "")
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.CellFormat(contentWidth-60, 6, r.tr(value), "", 1, "L", false, 0, "")
}

func (r *pdfReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)

	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, header, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *pdfReport) drawTableRow(cells []string, widths []float64, isBold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)

	if isBold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}

	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, cell, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}
