package advisory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/shopspring/decimal"
)

// analysisPromptTemplate asks for the full plan. Arguments in order:
// total income, baseline tax, savings per year, monthly savings,
// RMF room, SSF room, age, experience, knowledge, volatility reaction,
// goal priority, goals block, life premium, health premium,
// parents' health premium, suggested tickers, baseline tax (again, for the
// example object).
const analysisPromptTemplate = `You are a financial planner specialised in goal-based investing on US markets and Thai personal income tax planning.

Tasks:
1. Analyse the client data and the goals.
2. Build a persona and an insurance plan that takes existing cover into account.
3. Build a tax-saving plan from the figures below. Never recommend buying more RMF or SSF than the remaining room.
4. For EACH goal, in the order given, estimate feasibility using the savings that remain AFTER the tax-saving purchases (annual purchases divided by 12 come out of the monthly savings first).
5. For EACH goal, suggest an investment plan using US tickers.

Figures already computed (do not recompute):
- Total annual income: %s
- Tax payable with no further action: %s
- Savings available per year after expenses: %s
- Monthly savings before tax-saving purchases: %s
- RMF room left this year: %s
- SSF room left this year: %s

Client:
- Age: %d
- Investment experience: %s
- Knowledge: %s
- Reaction to volatility: %s
- Goal priority: %s
- Goals (index: type, horizon in years, target amount):
%s
- Existing insurance premiums per year: life %s, health (self) %s, health (parents) %s. Treat zero as no cover and recommend it in insurance_plan.

Market context (US tickers in the news): %s

Respond with ONLY valid JSON, no markdown, with exactly this structure.
goal_feasibility MUST have one entry per goal, in the same order as the goals above.
{
  "persona": "...",
  "risk_level": "...",
  "risk_name": "...",
  "risk_desc": "...",
  "insurance_plan": [
    {"name": "...", "reason": "...", "estimated_premium_per_year": 25000, "estimated_coverage": 5000000}
  ],
  "disclaimer": "...",
  "tax_plan": {
    "estimated_net_income": 450000,
    "estimated_tax_payable_before": %s,
    "estimated_tax_payable_after": 10000,
    "total_tax_saved": 15000,
    "summary": "...",
    "recommendations": [
      {"product": "RMF", "amount_to_buy": 100000, "estimated_tax_saved": 10000, "reason": "..."}
    ]
  },
  "goal_feasibility": [
    {
      "goal_name": "...",
      "probability_of_success_percent": 85,
      "required_savings_per_month": 5000,
      "analysis": "...",
      "worst_case_scenario": "...",
      "investment_plan": {
        "summary": "...",
        "assets": [{"name": "...", "ticker": "VOO", "percentage": 60}]
      }
    }
  ]
}`

// resimulationPromptTemplate re-evaluates one goal. Arguments in order:
// age, experience, knowledge, volatility reaction, goal name, horizon,
// target amount, investment plan JSON, new monthly savings (twice).
const resimulationPromptTemplate = `You are a financial planner in simulation mode.
Task: re-evaluate the feasibility of this ONE goal using the new monthly savings figure supplied by the client. Nothing else about the goal changes.

Client (for risk):
- Age: %d
- Risk profile: %s, %s, %s

Goal being simulated:
- Name: %s
- Horizon (years): %d
- Target amount: %s

Current investment plan for this goal:
%s

What-if:
- New monthly savings: %s

Respond with ONLY valid JSON with exactly this structure:
{
  "probability_of_success_percent": 85,
  "analysis": "short analysis, e.g. 'with %s per month the probability rises to 85%%...'"
}`

// chatSystemPromptTemplate primes a plan conversation with the plan JSON.
const chatSystemPromptTemplate = `You are a financial planner assistant.
This is the financial plan (JSON) you produced for the client:
%s

Answer the client's follow-up questions about this plan. Be concise and friendly, and base your answers on the plan.`

const chatAcknowledgement = "Understood. I am ready to answer questions about this plan."

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func buildAnalysisPrompt(req models.AdvisoryRequest) string {
	var goals strings.Builder
	if len(req.Goals) == 0 {
		goals.WriteString("  (none)\n")
	}
	for i, g := range req.Goals {
		fmt.Fprintf(&goals, "  %d: %s, %d years, %s\n", i, orUnknown(g.Type), g.HorizonYears, money(g.TargetAmount))
	}

	tickers := strings.Join(req.SuggestedTickers, ", ")
	if tickers == "" {
		tickers = "none"
	}

	a := req.Assessment
	p := req.Profile
	return fmt.Sprintf(analysisPromptTemplate,
		money(a.TotalIncome),
		money(a.TaxPayableBefore),
		money(a.AvailableSavingsPerYear),
		money(req.MonthlySavings),
		money(a.DeductionSpace.RMFSpace),
		money(a.DeductionSpace.SSFSpace),
		p.Age,
		orUnknown(p.Experience),
		orUnknown(p.Knowledge),
		orUnknown(p.VolatilityReaction),
		orUnknown(p.GoalPriority),
		strings.TrimRight(goals.String(), "\n"),
		money(p.LifePremium),
		money(p.HealthSelfPremium),
		money(p.HealthParentsPremium),
		tickers,
		money(a.TaxPayableBefore),
	)
}

func buildResimulationPrompt(req models.ResimulationRequest) (string, error) {
	planJSON, err := json.Marshal(req.InvestmentPlan)
	if err != nil {
		return "", fmt.Errorf("failed to marshal investment plan: %w", err)
	}

	p := req.ClientProfile
	savings := money(req.NewMonthlySavings)
	return fmt.Sprintf(resimulationPromptTemplate,
		p.Age,
		orUnknown(p.Experience),
		orUnknown(p.Knowledge),
		orUnknown(p.VolatilityReaction),
		orUnknown(req.Goal.Name),
		req.Goal.HorizonYears,
		money(req.Goal.TargetAmount),
		planJSON,
		savings,
		savings,
	), nil
}
