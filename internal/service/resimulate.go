package service

import (
	"context"

	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/Dan9191/savings-planner/internal/resimulation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Resimulate re-evaluates one goal of a stored plan with a new monthly
// savings figure. Bursts for the same goal are coalesced; superseded calls
// return models.ErrSuperseded. The stored plan is never rewritten.
func (s *Service) Resimulate(ctx context.Context, userID int64, planID string, goalIndex int, newSavings decimal.Decimal) (*models.ResimulationResult, error) {
	plan, err := s.store.GetPlan(ctx, planID, userID, s.now())
	if err != nil {
		return nil, err
	}

	req, err := resimulation.BuildRequest(plan, goalIndex, newSavings)
	if err != nil {
		return nil, err
	}

	if err := s.debouncer.Wait(ctx, resimulation.Key(planID, goalIndex)); err != nil {
		return nil, err
	}

	result, err := s.advisor.Resimulate(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"plan_id":     planID,
		"goal_index":  goalIndex,
		"savings":     req.NewMonthlySavings.String(),
		"probability": result.ProbabilityOfSuccessPercent.String(),
	}).Info("Goal resimulated")
	return result, nil
}

// ResimulateStateless re-evaluates a goal described entirely by the caller.
func (s *Service) ResimulateStateless(ctx context.Context, req models.ResimulationRequest) (*models.ResimulationResult, error) {
	req, err := resimulation.Normalize(req)
	if err != nil {
		return nil, err
	}
	return s.advisor.Resimulate(ctx, req)
}
