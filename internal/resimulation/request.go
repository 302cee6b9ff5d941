// Package resimulation builds single-goal what-if requests from a stored
// plan and coalesces bursts of them per goal.
package resimulation

import (
	"fmt"

	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/shopspring/decimal"
)

// BuildRequest prepares a what-if request for one goal of a plan.
// Horizon and target amount come from the submitted goal list, the
// investment plan from the feasibility entry with the same index. Only the
// monthly savings figure differs from the original run. The plan is not
// modified.
func BuildRequest(plan *models.Plan, goalIndex int, newMonthlySavings decimal.Decimal) (models.ResimulationRequest, error) {
	if plan == nil || goalIndex < 0 || goalIndex >= len(plan.Goals) {
		return models.ResimulationRequest{}, fmt.Errorf("goal %d: %w", goalIndex, models.ErrGoalNotFound)
	}

	goal := plan.Goals[goalIndex]
	identity := models.GoalIdentity{
		Index:        goalIndex,
		Name:         goal.Type,
		HorizonYears: goal.HorizonYears,
		TargetAmount: goal.TargetAmount,
	}

	var investmentPlan models.InvestmentPlan
	if f, ok := plan.Feasibility(goalIndex); ok {
		if f.GoalName != "" {
			identity.Name = f.GoalName
		}
		if f.InvestmentPlan != nil {
			investmentPlan = copyInvestmentPlan(*f.InvestmentPlan)
		}
	}

	return models.ResimulationRequest{
		Goal:              identity,
		NewMonthlySavings: models.NonNegative(newMonthlySavings),
		ClientProfile:     plan.Profile,
		InvestmentPlan:    investmentPlan,
	}, nil
}

// Normalize cleans up a client-supplied request for the stateless path.
func Normalize(req models.ResimulationRequest) (models.ResimulationRequest, error) {
	if req.Goal.Index < 0 {
		return req, fmt.Errorf("goal %d: %w", req.Goal.Index, models.ErrGoalNotFound)
	}
	if req.Goal.HorizonYears < 0 {
		req.Goal.HorizonYears = 0
	}
	req.Goal.TargetAmount = models.NonNegative(req.Goal.TargetAmount)
	req.NewMonthlySavings = models.NonNegative(req.NewMonthlySavings)
	req.ClientProfile = req.ClientProfile.Normalize()
	return req, nil
}

func copyInvestmentPlan(p models.InvestmentPlan) models.InvestmentPlan {
	assets := make([]models.Asset, len(p.Assets))
	copy(assets, p.Assets)
	return models.InvestmentPlan{Summary: p.Summary, Assets: assets}
}
