// Package jobs schedules the periodic maintenance of plans and caches.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	PurgeExpiredPlans = "purge-expired-plans"
	PruneQuoteCache   = "prune-quote-cache"

	purgeSchedule = "@hourly"
	pruneSchedule = "@every 5m"
	jobTimeout    = time.Minute
)

// Maintainer is implemented by service.Service.
type Maintainer interface {
	PurgeExpiredPlans(ctx context.Context) (int64, error)
	PruneQuoteCache() int
}

// Scheduler runs maintenance jobs on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	svc  Maintainer
	log  *logrus.Logger
	ids  map[string]cron.EntryID
}

// NewScheduler registers every job. Nothing runs until Start.
func NewScheduler(svc Maintainer, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{log}))),
		svc:  svc,
		log:  log,
		ids:  make(map[string]cron.EntryID),
	}

	for _, job := range []struct {
		name, spec string
		run        func()
	}{
		{PurgeExpiredPlans, purgeSchedule, s.purge},
		{PruneQuoteCache, pruneSchedule, s.prune},
	} {
		id, err := s.cron.AddFunc(job.spec, job.run)
		if err != nil {
			return nil, err
		}
		s.ids[job.name] = id
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("jobs", len(s.ids)).Info("Scheduler started")
}

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out")
	}
}

// Next reports when a job runs next; zero before Start.
func (s *Scheduler) Next(name string) time.Time {
	id, ok := s.ids[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.svc.PurgeExpiredPlans(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{"job": PurgeExpiredPlans, "error": err}).Error("Job failed")
		return
	}
	s.log.WithFields(logrus.Fields{"job": PurgeExpiredPlans, "deleted": n}).Info("Job finished")
}

func (s *Scheduler) prune() {
	n := s.svc.PruneQuoteCache()
	s.log.WithFields(logrus.Fields{"job": PruneQuoteCache, "evicted": n}).Debug("Job finished")
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct{ log *logrus.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}
