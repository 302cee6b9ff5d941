package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/Dan9191/savings-planner/internal/report"
	sentryutil "github.com/Dan9191/savings-planner/internal/sentry"
)

// Quotes returns live quotes for the given symbols.
func (s *Service) Quotes(ctx context.Context, symbols []string) map[string]models.QuoteResult {
	return s.quotes.Quotes(ctx, symbols)
}

// ExportCSV renders a stored plan as CSV.
func (s *Service) ExportCSV(ctx context.Context, userID int64, planID string) ([]byte, error) {
	plan, err := s.store.GetPlan(ctx, planID, userID, s.now())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, plan, s.prices(ctx, plan)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportPDF renders a stored plan as PDF.
func (s *Service) ExportPDF(ctx context.Context, userID int64, planID string) ([]byte, error) {
	plan, err := s.store.GetPlan(ctx, planID, userID, s.now())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.WritePDF(&buf, plan, s.prices(ctx, plan)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EmailPlan sends the CSV export to the household's address.
func (s *Service) EmailPlan(ctx context.Context, userID int64, planID string) error {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	data, err := s.ExportCSV(ctx, userID, planID)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("financial_plan_%s.csv", planID)
	if err := s.mailer.SendPlanExport(user.Email, user.Username, planID, data, filename, "text/csv"); err != nil {
		sentryutil.CaptureError(err, map[string]string{"op": "email_plan"})
		return err
	}
	return nil
}

// prices looks up live quotes for every ticker in the plan. Missing quotes
// render as N/A.
func (s *Service) prices(ctx context.Context, plan *models.Plan) report.Prices {
	tickers := report.Tickers(plan)
	if len(tickers) == 0 || s.quotes == nil {
		return report.Prices{}
	}
	return report.Prices(s.quotes.Quotes(ctx, tickers))
}
