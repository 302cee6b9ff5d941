package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/savings-planner/internal/allocation"
	"github.com/Dan9191/savings-planner/internal/integrations/news"
	"github.com/Dan9191/savings-planner/internal/models"
	sentryutil "github.com/Dan9191/savings-planner/internal/sentry"
	"github.com/Dan9191/savings-planner/internal/tax"
	"github.com/sirupsen/logrus"
)

const (
	maxGoals         = 20
	suggestedTickers = 15
)

// AssessTax runs the deterministic tax assessment only.
func (s *Service) AssessTax(profile models.ClientProfile) models.TaxAssessment {
	return s.rules.Assess(profile.Normalize())
}

// AllocateSavings runs the waterfall over caller-supplied figures.
func (s *Service) AllocateSavings(in models.AllocationInput) models.AllocationResult {
	requests := make([]allocation.Request, len(in.Goals))
	for i, g := range in.Goals {
		requests[i] = allocation.Request{
			GoalIndex:   i,
			GoalName:    g.GoalName,
			Recommended: g.RequiredSavingsPerMonth,
		}
	}
	return allocation.Allocate(in.TotalMonthlySavings, models.NonNegative(in.AnnualTaxPurchases), requests)
}

// Analyze builds a complete plan for a submission and stores it.
// An advisory failure does not abort the plan: it is stored with the
// deterministic figures only.
func (s *Service) Analyze(ctx context.Context, userID int64, sub models.Submission) (*models.Plan, error) {
	goals, err := normalizeGoals(sub.Goals)
	if err != nil {
		return nil, err
	}
	profile := sub.Profile.Normalize()

	assessment := s.rules.Assess(profile)
	monthlySavings := profile.MonthlyDiscretionarySavings()

	now := s.now()
	plan := &models.Plan{
		ID:         s.newID(),
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.config.PlanTTL),
		Profile:    profile,
		Goals:      goals,
		Assessment: assessment,
	}

	advisory, err := s.advisor.GetAdvisory(ctx, models.AdvisoryRequest{
		Profile:          profile,
		Goals:            goals,
		Assessment:       assessment,
		MonthlySavings:   monthlySavings,
		SuggestedTickers: s.suggestedTickers(ctx),
	})
	if err != nil {
		if !errors.Is(err, models.ErrAdvisoryUnavailable) {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{"plan_id": plan.ID, "error": err}).Warn("Advisory unavailable, storing deterministic plan")
		sentryutil.CaptureError(err, map[string]string{"op": "analyze"})
		plan.AdvisoryError = "advisory_unavailable"
	} else {
		plan.Advisory = advisory
	}

	var feasibility []models.GoalFeasibility
	if plan.Advisory != nil {
		bounded, diags := tax.BoundPlan(plan.Advisory.TaxPlan, assessment.DeductionSpace)
		plan.TaxPlan = bounded
		plan.Diagnostics = append(plan.Diagnostics, diags...)
		plan.Assessment.TaxPayableAfter = s.rules.TaxAfterPurchases(assessment, bounded)
		feasibility = plan.Advisory.GoalFeasibility
	}

	requests, diags := allocation.BuildRequests(goals, feasibility)
	if plan.Advisory != nil && len(diags) > 0 {
		sentryutil.CaptureWarning(
			fmt.Sprintf("advisory feasibility list misaligned: %d goals, %d entries", len(goals), len(feasibility)),
			map[string]string{"op": "analyze"})
	}
	plan.Diagnostics = append(plan.Diagnostics, diags...)
	plan.Allocation = allocation.Allocate(monthlySavings, plan.TaxPlan.AnnualPurchases(), requests)

	if err := s.store.SavePlan(ctx, plan); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"plan_id":   plan.ID,
		"user_id":   userID,
		"goals":     len(goals),
		"allocated": plan.Allocation.TotalAllocated.String(),
		"remaining": plan.Allocation.RemainingPool.String(),
	}).Info("Plan created")
	return plan, nil
}

// GetPlan loads a plan owned by the household.
func (s *Service) GetPlan(ctx context.Context, userID int64, planID string) (*models.Plan, error) {
	return s.store.GetPlan(ctx, planID, userID, s.now())
}

// suggestedTickers asks the news feed for market context, falling back to
// a fixed list.
func (s *Service) suggestedTickers(ctx context.Context) []string {
	if s.news != nil {
		tickers, err := s.news.RelatedTickers(ctx, suggestedTickers)
		if err == nil && len(tickers) > 0 {
			return tickers
		}
		s.log.WithField("error", err).Warn("News feed failed, using default tickers")
	}
	return append([]string(nil), news.DefaultTickers...)
}

// normalizeGoals assigns each goal its submission index and clamps
// negative figures.
func normalizeGoals(in []models.Goal) ([]models.Goal, error) {
	if len(in) > maxGoals {
		return nil, fmt.Errorf("at most %d goals are allowed: %w", maxGoals, models.ErrInvalidSubmission)
	}
	goals := make([]models.Goal, len(in))
	for i, g := range in {
		g.Index = i
		g.Type = strings.TrimSpace(g.Type)
		if g.HorizonYears < 0 {
			g.HorizonYears = 0
		}
		g.TargetAmount = models.NonNegative(g.TargetAmount)
		goals[i] = g
	}
	return goals, nil
}
