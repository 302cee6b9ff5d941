package service

import (
	"context"

	sentryutil "github.com/Dan9191/savings-planner/internal/sentry"
)

// PurgeExpiredPlans deletes plans past their expiry.
func (s *Service) PurgeExpiredPlans(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeExpired(ctx, s.now())
	if err != nil {
		sentryutil.CaptureError(err, map[string]string{"job": "purge-expired-plans"})
		return 0, err
	}
	s.log.Infof("Purged %d expired plans", n)
	return n, nil
}

// PruneQuoteCache evicts expired quotes.
func (s *Service) PruneQuoteCache() int {
	n := s.quotes.Prune()
	s.log.Debugf("Pruned %d cached quotes", n)
	return n
}
