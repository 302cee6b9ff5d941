package models

import "github.com/shopspring/decimal"

// Goal is one entry of the client-submitted goal list.
// Index is assigned at submission and is the goal's identity for the
// lifetime of the plan, including resimulation. Names are not unique.
type Goal struct {
	Index        int             `json:"index"`
	Type         string          `json:"type"`
	HorizonYears int             `json:"horizon"`
	TargetAmount decimal.Decimal `json:"amount"`
}

// Asset is one line of a suggested sub-portfolio.
type Asset struct {
	Name       string          `json:"name"`
	Ticker     string          `json:"ticker"`
	Percentage decimal.Decimal `json:"percentage"`
}

// InvestmentPlan is the portfolio the advisory model suggests for a goal.
type InvestmentPlan struct {
	Summary string  `json:"summary"`
	Assets  []Asset `json:"assets"`
}

// GoalFeasibility is the advisory model's view of one goal, aligned by
// index with the submitted goal list.
type GoalFeasibility struct {
	GoalName                    string          `json:"goal_name"`
	ProbabilityOfSuccessPercent decimal.Decimal `json:"probability_of_success_percent"`
	RequiredSavingsPerMonth     decimal.Decimal `json:"required_savings_per_month"`
	Analysis                    string          `json:"analysis"`
	WorstCaseScenario           string          `json:"worst_case_scenario"`
	InvestmentPlan              *InvestmentPlan `json:"investment_plan,omitempty"`
}
